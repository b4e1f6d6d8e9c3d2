package util

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidSegment is returned for ids that cannot name a storage key part.
var ErrInvalidSegment = errors.New("invalid key segment")

// KeySegment makes an owner or note id safe to use as one segment of an
// object key. Separators become underscores; traversal and control
// characters are refused.
func KeySegment(id string) (string, error) {
	s := strings.TrimSpace(id)
	if s == "" || strings.Contains(s, "..") {
		return "", ErrInvalidSegment
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsControl(r):
			return "", ErrInvalidSegment
		case r == '/' || r == '\\':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}
