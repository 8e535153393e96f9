// Package text provides rune-aware helpers for message formatting.
package text

import "unicode/utf8"

// CountRunes counts Unicode characters rather than bytes, which is how chat
// platforms measure message and caption limits.
//
//	CountRunes("hello")     // 5
//	CountRunes("日本語")     // 3
//	CountRunes("Hello👋")   // 6
func CountRunes(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate shortens s to at most maxRunes runes, ending with suffix when cut.
// Runes are never split.
func Truncate(s string, maxRunes int, suffix string) string {
	if CountRunes(s) <= maxRunes {
		return s
	}
	keep := maxRunes - CountRunes(suffix)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + suffix
}
