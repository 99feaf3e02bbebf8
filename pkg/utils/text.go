// Package utils provides shared helpers for text, math, and logging.
package utils

import "unicode/utf8"

// Truncate shortens s to at most maxLen bytes, appending "..." when text was
// dropped. The cut never splits a multi-byte rune. A zero or negative maxLen
// returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
