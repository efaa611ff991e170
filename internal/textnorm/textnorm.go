// Package textnorm folds free text into the ASCII-ish form the extraction
// rules and the intent router match against.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips diacritics ("inversión" -> "inversion"). Characters without a
// decomposition (€, ñ's base letter, digits) are kept.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize folds diacritics, converts non-breaking and other horizontal
// whitespace to single spaces and unifies line endings. Line breaks are kept
// because section headers are anchored at line starts.
func Normalize(s string) string {
	s = Fold(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.FieldsFunc(line, isHorizontalSpace), " ")
	}
	return strings.Join(lines, "\n")
}

// Lower is Fold followed by lower-casing.
func Lower(s string) string {
	return strings.ToLower(Fold(s))
}

func isHorizontalSpace(r rune) bool {
	return r != '\n' && unicode.IsSpace(r)
}
