package catalog

import (
	"strings"
	"unicode"

	"equiv/internal/textutil"
)

// TitleKey reduces a title to the form used for search indexing: folded,
// accent-free, punctuation dropped and a leading "the" removed.
func TitleKey(title string) string {
	folded := textutil.StripAccents(textutil.Fold(title))
	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '&':
			b.WriteString(" and ")
		default:
			b.WriteRune(' ')
		}
	}
	key := textutil.CollapseSpaces(b.String())
	key = strings.TrimPrefix(key, "the ")
	return key
}
