package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// StripAccents removes combining marks after canonical decomposition, so
// "Amélie" becomes "Amelie". Characters without a decomposition are kept.
func StripAccents(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// Fold lower-cases value using Unicode case folding and trims surrounding
// whitespace.
func Fold(value string) string {
	return strings.TrimSpace(folder.String(norm.NFKC.String(value)))
}
