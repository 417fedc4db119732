// Package sanitize strips markup from user-supplied and configured strings.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict is safe for concurrent use once built.
var strict = bluemonday.StrictPolicy() //nolint:gochecknoglobals // immutable policy

// StripTags removes every HTML element from s and returns plain text.
// Entities produced by the policy are decoded back so "a & b" survives unchanged.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return s
	}
	return html.UnescapeString(strict.Sanitize(s))
}
