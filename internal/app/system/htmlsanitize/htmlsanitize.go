// Package htmlsanitize cleans user-supplied text before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps safe formatting markup (paragraphs, lists, links) and drops
// scripts, event handlers, and other active content. Used for descriptions.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

// StripTags removes all markup and returns plain text. Used for names,
// titles, and locations.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}
