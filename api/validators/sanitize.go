package validators

import (
	"strings"
	"unicode"
)

// SanitizeString drops control characters, collapses whitespace runs to one space, trims,
// and caps the result at maxRunes runes (no cap when maxRunes <= 0).
func SanitizeString(input string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(input))
	count := 0
	pendingSpace := false
	for _, r := range input {
		if unicode.IsSpace(r) {
			pendingSpace = count > 0
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if pendingSpace {
			if maxRunes > 0 && count+1 >= maxRunes {
				break
			}
			b.WriteRune(' ')
			count++
			pendingSpace = false
		}
		if maxRunes > 0 && count >= maxRunes {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}
