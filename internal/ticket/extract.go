package ticket

import (
	"regexp"

	"github.com/reaperdwarf/moover/internal/airports"
)

// wordPattern finds runs of uppercase letters. Lowercase text is ignored:
// location codes are printed in capitals.
var wordPattern = regexp.MustCompile(`[A-Z]+`)

// Extractor pulls validated location codes out of recognised text
type Extractor struct {
	directory *airports.Directory
	blocklist *airports.Blocklist
}

// NewExtractor creates an Extractor over a directory and blocklist
func NewExtractor(directory *airports.Directory, blocklist *airports.Blocklist) *Extractor {
	return &Extractor{directory: directory, blocklist: blocklist}
}

// Codes returns the location codes in text in first-occurrence order,
// without duplicates. A code counts only when the directory knows it and the
// blocklist does not name it.
//
// Each uppercase word is split into consecutive 3-letter tokens, so packed
// barcode fields such as "JFKLHRBA" yield JFK then LHR. A word that is itself
// blocklisted ("SEAT", "GATE") contributes nothing.
func (e *Extractor) Codes(text string) []string {
	var codes []string
	seen := make(map[string]bool)

	for _, word := range wordPattern.FindAllString(text, -1) {
		if len(word) > 3 && e.blocklist.Contains(word) {
			continue
		}
		for i := 0; i+3 <= len(word); i += 3 {
			tok := word[i : i+3]
			if seen[tok] || !e.valid(tok) {
				continue
			}
			seen[tok] = true
			codes = append(codes, tok)
		}
	}

	return codes
}

func (e *Extractor) valid(tok string) bool {
	return e.directory.Contains(tok) && !e.blocklist.Contains(tok)
}

// Name resolves a code through the directory; unknown codes resolve to ""
func (e *Extractor) Name(code string) string {
	name, _ := e.directory.Lookup(code)
	return name
}
