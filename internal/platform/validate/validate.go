// Package validate holds the field checks shared by the public forms.
package validate

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Email reports whether s is a bare address such as "a@b.in". Display-name
// forms like "Asha <a@b.in>" are rejected.
func Email(s string) bool {
	s = strings.TrimSpace(s)
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Length reports whether s has between min and max runes. max <= 0 means
// no upper bound.
func Length(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && (max <= 0 || n <= max)
}
