package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxLabelRunes bounds sticker pack names and authors.
const MaxLabelRunes = 128

// NormalizeLabel trims a metadata label, composes it to Unicode NFC, drops
// control characters, and truncates it to MaxLabelRunes. Empty input stays
// empty.
func NormalizeLabel(value string) string {
	value = norm.NFC.String(strings.TrimSpace(value))
	var b strings.Builder
	count := 0
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		if count == MaxLabelRunes {
			break
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimSpace(b.String())
}
