// Package normalize trims and case-folds user-supplied identifiers so that
// stored values and lookups agree.
package normalize

import "strings"

// Email trims whitespace and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Status trims whitespace and lowercases a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role trims whitespace and lowercases a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
