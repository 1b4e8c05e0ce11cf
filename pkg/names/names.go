// Package names normalizes free-text person names and email addresses into
// canonical forms. Both normalizers are total functions: malformed input is
// expected data, not a program error, so failure surfaces as empty fields or
// a not-ok flag rather than an error.
package names

import (
	"strings"
)

// PersonName is the canonical decomposition of a free-text name. Empty
// fields are unset. Parsing is deterministic and idempotent.
type PersonName struct {
	Title  string
	First  string
	Middle string
	Last   string
	Suffix string
}

// IsZero reports whether no component was recognized.
func (n PersonName) IsZero() bool {
	return n == PersonName{}
}

// titles is the recognized title vocabulary, keyed by the lowercased,
// period-stripped token.
var titles = map[string]bool{
	"mr":   true,
	"mrs":  true,
	"miss": true,
	"dr":   true,
	"prof": true,
	"rev":  true,
	"hon":  true,
}

// suffixes is the recognized professional/generational suffix vocabulary.
var suffixes = map[string]bool{
	"jr":  true,
	"sr":  true,
	"i":   true,
	"ii":  true,
	"iii": true,
	"iv":  true,
	"v":   true,
	"phd": true,
	"md":  true,
	"esq": true,
}

// normalizeToken lowercases a token and strips periods for vocabulary
// lookup. The original token text is what ends up in the PersonName.
func normalizeToken(tok string) string {
	return strings.ToLower(strings.ReplaceAll(tok, ".", ""))
}

// isTitle reports whether a token is a recognized title.
func isTitle(tok string) bool {
	return titles[normalizeToken(tok)]
}

// isSuffix reports whether a token is a recognized suffix.
func isSuffix(tok string) bool {
	return suffixes[normalizeToken(tok)]
}

// ParseName decomposes a free-text person name. Title and suffix
// vocabularies are consumed before the first/middle/last split so that
// "Dr. John Smith Jr." does not read as a four-token middle-name case.
func ParseName(raw string) PersonName {
	clean := strings.Join(strings.Fields(raw), " ")
	if clean == "" {
		return PersonName{}
	}

	if strings.Contains(clean, ",") {
		return parseCommaForm(clean)
	}
	return parseSpaceForm(clean)
}

// parseCommaForm handles "Last, First [Middle...][, Suffix]".
func parseCommaForm(clean string) PersonName {
	var name PersonName

	last, rest, _ := strings.Cut(clean, ",")
	name.Last = strings.TrimSpace(last)

	rest = strings.TrimSpace(rest)
	if head, tail, found := strings.Cut(rest, ","); found {
		tail = strings.TrimSpace(tail)
		if isSuffix(tail) {
			name.Suffix = tail
			rest = strings.TrimSpace(head)
		} else {
			rest = strings.TrimSpace(head) + " " + tail
		}
	}

	tokens := strings.Fields(rest)
	if len(tokens) > 0 {
		name.First = tokens[0]
	}
	if len(tokens) > 1 {
		name.Middle = strings.Join(tokens[1:], " ")
	}
	return name
}

// parseSpaceForm handles "[Title] First [Middle...] [Last] [Suffix]".
func parseSpaceForm(clean string) PersonName {
	var name PersonName

	tokens := strings.Fields(clean)
	if len(tokens) > 1 && isTitle(tokens[0]) {
		name.Title = tokens[0]
		tokens = tokens[1:]
	}
	if len(tokens) > 1 && isSuffix(tokens[len(tokens)-1]) {
		name.Suffix = tokens[len(tokens)-1]
		tokens = tokens[:len(tokens)-1]
	}

	switch len(tokens) {
	case 0:
	case 1:
		name.First = tokens[0]
	case 2:
		name.First = tokens[0]
		name.Last = tokens[1]
	default:
		name.First = tokens[0]
		name.Last = tokens[len(tokens)-1]
		name.Middle = strings.Join(tokens[1:len(tokens)-1], " ")
	}
	return name
}
