package recommend

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a free-text ingredient name: Unicode
// decomposition, diacritics stripped, lower-cased, every character
// outside [a-z0-9 ] replaced by a space, whitespace runs collapsed,
// trimmed. Two names denote the same ingredient iff their normalized
// forms are equal. Empty or garbage input normalizes to "".
func Normalize(name string) string {
	s := stripDiacritics(strings.ToLower(name))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
