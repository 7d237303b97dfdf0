// Package identity canonicalizes customer contact details for matching.
package identity

import (
	"regexp"
	"strings"
)

var nonDigitRegexp = regexp.MustCompile(`\D`)

// NormalizePhone strips every non-digit character. Input without any digits
// is returned unchanged so malformed values still carry information.
func NormalizePhone(raw string) string {
	digits := nonDigitRegexp.ReplaceAllString(raw, "")
	if digits == "" {
		return raw
	}
	return digits
}

// MatchesPhone compares two optional phone numbers after normalization.
// Two nil values match; a nil and a non-nil value never do.
func MatchesPhone(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return NormalizePhone(*a) == NormalizePhone(*b)
}

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// MatchesEmail compares two emails case-insensitively, ignoring surrounding space.
func MatchesEmail(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}
