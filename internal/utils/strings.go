// internal/utils/strings.go
package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MissingSerial is the placeholder recorded for parts whose serial is unknown.
// Any number of components may share it.
const MissingSerial = "thiếu serial"

// NormalizeString folds case and diacritics and drops whitespace, so
// "Thiếu Serial" and "thieuserial" compare equal.
func NormalizeString(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.NewReplacer("đ", "d", "Đ", "D").Replace(folded)

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsMissingSerial reports whether serial is the shared placeholder.
func IsMissingSerial(serial string) bool {
	return NormalizeString(serial) == NormalizeString(MissingSerial)
}
