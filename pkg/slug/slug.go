// Package slug derives URL- and path-safe identifiers from display names.
// Slugs feed into storage paths, so they stay lowercase ASCII with hyphen
// separators.
package slug

import (
	"strings"
	"unicode"
)

// MaxLength caps generated slugs.
const MaxLength = 80

// Make converts a display name into a slug. Returns "" when nothing
// slug-worthy survives.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // suppress leading hyphens
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r), r == '-', r == '_', r == '/', r == '.':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}
