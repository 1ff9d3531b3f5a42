// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"strings"
	"unicode"
)

// CollapseToken lowercases s and removes all whitespace, so multi-word names
// become single tokens ("Tom Hanks" -> "tomhanks") and cannot collide with
// other names sharing a word.
func CollapseToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
