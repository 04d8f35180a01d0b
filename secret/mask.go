package secret

import "strings"

// Mask returns a log-safe rendering of a credential: the first four
// characters followed by asterisks. Values of eight characters or fewer
// are fully masked.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}
