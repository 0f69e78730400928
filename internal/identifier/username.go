package identifier

import (
	"regexp"
	"strings"
)

var unsafeUsernameChars = regexp.MustCompile(`[^-.@_a-z0-9]`)

// SanitizeUsername reduces s to the characters allowed in a login name: trimmed, lowercased,
// restricted to a-z, 0-9 and "-", ".", "@", "_".
func SanitizeUsername(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return unsafeUsernameChars.ReplaceAllString(s, "")
}

// IsSafeUsername reports whether s is already in sanitized form.
func IsSafeUsername(s string) bool {
	return s == SanitizeUsername(s)
}
