// Package textutil normalizes free text from bank exports.
package textutil

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripAccents removes combining marks: "Crédito" -> "Credito".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold upper-cases s, strips accents and collapses whitespace runs.
// Classifier and matching rules compare folded strings.
func Fold(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(StripAccents(s)), " "))
}

// Key lower-cases and folds s for header and label lookups.
func Key(s string) string {
	return strings.ToLower(Fold(s))
}

// ContainsAny reports whether folded s contains any of the folded needles.
func ContainsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Decode returns content as UTF-8 text. A UTF-8 BOM is dropped; input that
// is not valid UTF-8 is treated as Windows-1252, the usual encoding of
// Brazilian bank exports.
func Decode(content []byte) string {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(out)
}
