// Package util provides small shared helpers that don't fit a
// domain-specific package.
package util

// SafeTruncate truncates a string to maxLen characters without panicking.
// Used when logging tokens, where only a short prefix should ever appear.
// A negative maxLen yields an empty string.
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
