package util

import (
	"strings"
	"unicode/utf8"
)

const UsernameMaxLen = 24

// NormalizeUsername trims the name and collapses inner whitespace runs
// to single spaces.
func NormalizeUsername(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// UsernameKey folds a username for case-insensitive comparison.
func UsernameKey(name string) string {
	return strings.ToLower(NormalizeUsername(name))
}

// ValidUsername reports whether the normalized name is non-empty and
// within the length limit.
func ValidUsername(name string) bool {
	n := utf8.RuneCountInString(NormalizeUsername(name))
	return n >= 1 && n <= UsernameMaxLen
}
