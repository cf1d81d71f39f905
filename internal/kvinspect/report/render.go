package report

import (
	"encoding/hex"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Text renders b as-is when it is printable UTF-8, otherwise as 0x-prefixed hex.
func Text(b []byte) string {
	if IsText(b) {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}

// IsText reports whether b is valid UTF-8 without control characters other than
// tab and newline.
func IsText(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if r == '\t' || r == '\n' {
			continue
		}
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Clip renders b with Text and shortens it to at most limit bytes of input.
// limit <= 0 disables clipping.
func Clip(b []byte, limit int) string {
	if limit <= 0 || len(b) <= limit {
		return Text(b)
	}
	cut := b[:limit]
	if IsText(b) {
		// back off to a rune boundary so the clipped text stays valid
		for len(cut) > 0 && !utf8.Valid(cut) {
			cut = cut[:len(cut)-1]
		}
	}
	return fmt.Sprintf("%s...(%d bytes)", Text(cut), len(b))
}
