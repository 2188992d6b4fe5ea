// Package nameclean strips junk out of freeform contact names before they are
// allowed to become evidence. Crowdsourced address books contain emoji, phone
// numbers saved as names, placeholder text, and random punctuation; none of it
// may reach the clustering step.
package nameclean

import (
	"strings"
	"unicode"
)

// placeholders are saved-name values that carry no identity information.
// Matched case-insensitively against the whole cleaned string.
var placeholders = map[string]struct{}{
	"n/a":       {},
	"na":        {},
	"unknown":   {},
	"no name":   {},
	"noname":    {},
	"none":      {},
	"null":      {},
	"nil":       {},
	"test":      {},
	"spam":      {},
	"me":        {},
	"new":       {},
	"contact":   {},
	"unsaved":   {},
	"number":    {},
	"do not":    {},
	"dont know": {},
	"xyz":       {},
	"abc":       {},
	"asdf":      {},
}

// Clean normalizes a raw display name: trims, drops everything except
// letters, marks, spaces and the few connectors real names use, and collapses
// runs of whitespace. An empty return means the input carried no usable name.
func Clean(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsMark(r):
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			b.WriteRune(' ')
		case r == '.' || r == '\'' || r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")

	// A name made only of connectors is no name at all.
	if strings.Trim(cleaned, ".'- ") == "" {
		return ""
	}
	return cleaned
}

// IsJunk reports whether a cleaned name carries no identity signal: empty,
// a known placeholder, or a single character.
func IsJunk(cleaned string) bool {
	if cleaned == "" {
		return true
	}
	if len([]rune(cleaned)) < 2 {
		return true
	}
	_, ok := placeholders[strings.ToLower(cleaned)]
	return ok
}

// CleanAndValidate is the intake-path helper: clean, then reject junk.
// Returns the cleaned name and whether it is usable as evidence.
func CleanAndValidate(raw string) (string, bool) {
	cleaned := Clean(raw)
	if IsJunk(cleaned) {
		return "", false
	}
	return cleaned, true
}
