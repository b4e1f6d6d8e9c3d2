package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ExportFileName folds a note title into an ASCII file stem: accents are
// stripped and every character outside [A-Za-z0-9] becomes an underscore.
func ExportFileName(title, ext string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	stem := b.String()
	if stem == "" {
		stem = "note"
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}
