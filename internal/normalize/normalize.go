package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Text cleans raw input: word characters, whitespace and the punctuation
// allowlist ". , ! ? ; :" survive, whitespace runs become a single space and
// the result is trimmed. Stripping runs before collapsing so the output never
// holds a double space and Text(Text(x)) == Text(x).
func Text(raw string) string {
	if raw == "" {
		return ""
	}
	stripped := strings.Map(func(r rune) rune {
		if keep(r) {
			return r
		}
		return -1
	}, norm.NFC.String(raw))

	return norm.NFC.String(strings.Join(strings.Fields(stripped), " "))
}

func keep(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsNumber(r), r == '_', unicode.IsSpace(r):
		return true
	}
	return strings.ContainsRune(".,!?;:", r)
}
