package util

import (
	"strings"
	"unicode"
)

// Slugify derives a URL-safe slug from a name: lowercase, runs of
// non-alphanumerics collapsed to single hyphens, no leading/trailing
// hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
