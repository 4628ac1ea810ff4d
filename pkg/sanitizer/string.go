package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize collapses every whitespace run to a single space and
// drops invisible format characters such as zero-width spaces, which arrive
// with text pasted from messaging apps.
func TrimAndNormalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
