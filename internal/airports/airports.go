// Package airports holds the static lookup data used to validate location
// codes read off travel documents.
package airports

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
)

var (
	codePattern  = regexp.MustCompile(`^[A-Z]{3}$`)
	tokenPattern = regexp.MustCompile(`^[A-Z]{1,7}$`)
)

// Directory maps 3-letter location codes to a "city, country" name.
// It is never modified after construction and is safe for concurrent use.
type Directory struct {
	names map[string]string
}

// NewDirectory builds a Directory from code -> name entries.
func NewDirectory(entries map[string]string) (*Directory, error) {
	names := make(map[string]string, len(entries))
	for code, name := range entries {
		if !codePattern.MatchString(code) {
			return nil, fmt.Errorf("invalid location code %q", code)
		}
		if name == "" {
			return nil, fmt.Errorf("location code %s has no name", code)
		}
		names[code] = name
	}
	return &Directory{names: names}, nil
}

// Lookup returns the name for code and whether the code is known.
func (d *Directory) Lookup(code string) (string, bool) {
	name, ok := d.names[code]
	return name, ok
}

// Contains reports whether code is a known location code.
func (d *Directory) Contains(code string) bool {
	_, ok := d.names[code]
	return ok
}

// Len returns the number of codes in the directory.
func (d *Directory) Len() int {
	return len(d.names)
}

// Codes returns every code in the directory, sorted.
func (d *Directory) Codes() []string {
	return slices.Sorted(maps.Keys(d.names))
}

// Blocklist is a set of tokens that look like location codes or ticket words
// but must never be read as one.
type Blocklist struct {
	tokens map[string]struct{}
}

// NewBlocklist builds a Blocklist. Tokens must be 1-7 uppercase letters.
func NewBlocklist(tokens ...string) (*Blocklist, error) {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if !tokenPattern.MatchString(tok) {
			return nil, fmt.Errorf("invalid blocklist token %q", tok)
		}
		set[tok] = struct{}{}
	}
	return &Blocklist{tokens: set}, nil
}

// Contains reports whether tok is blocked.
func (b *Blocklist) Contains(tok string) bool {
	_, ok := b.tokens[tok]
	return ok
}

// Len returns the number of blocked tokens.
func (b *Blocklist) Len() int {
	return len(b.tokens)
}

// Tokens returns every blocked token, sorted.
func (b *Blocklist) Tokens() []string {
	return slices.Sorted(maps.Keys(b.tokens))
}
