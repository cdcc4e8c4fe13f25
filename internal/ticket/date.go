package ticket

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// minYear rejects numeric runs that only look like dates, such as flight or
// sequence numbers.
const minYear = 2020

// datePattern matches, leftmost first:
//
//	2026-03-15              ISO
//	15MAR2026, 15 Mar 26    day, month name, year
//	15/03/2026, 15.03.26    numeric, day first
var datePattern = regexp.MustCompile(`(?i)\b(?:` +
	`(\d{4})-(\d{2})-(\d{2})` +
	`|(\d{1,2})[\s./-]*(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)[A-Z]*[\s./,-]*(\d{4}|\d{2})` +
	`|(\d{1,2})[./-](\d{1,2})[./-](\d{4}|\d{2})` +
	`)\b`)

var monthNames = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// ResolveDate returns the first date found in text as YYYY-MM-DD. When there
// is no match, or the first match is not a real date from minYear on, it
// returns now's date.
func ResolveDate(text string, now time.Time) string {
	if t, ok := findDate(text); ok {
		return t.Format(DateLayout)
	}
	return now.Format(DateLayout)
}

func findDate(text string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	switch {
	case m[1] != "":
		return makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))

	case m[4] != "":
		month := monthNames[strings.ToUpper(m[5])]
		return makeDate(fullYear(m[6]), int(month), atoi(m[4]))

	default:
		year := fullYear(m[9])
		a, b := atoi(m[7]), atoi(m[8])
		if t, ok := makeDate(year, b, a); ok {
			return t, true
		}
		// 03/25/2026 can only be month first
		return makeDate(year, a, b)
	}
}

// makeDate rejects out-of-range parts instead of letting time.Date normalise
// them (31 Feb would otherwise become 3 Mar).
func makeDate(year, month, day int) (time.Time, bool) {
	if year < minYear || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func fullYear(s string) int {
	year := atoi(s)
	if len(s) == 2 {
		year += 2000
	}
	return year
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
