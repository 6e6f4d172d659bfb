// Package validation holds format checks for values sent to the Supermetrics API.
package validation

import (
	"net/mail"
	"strings"
	"unicode"
)

// HasControlChars reports whether s contains any control character,
// including CR, LF, NUL and tab.
func HasControlChars(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// IsValidEmail checks if a string is a bare email address (no display name)
func IsValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
