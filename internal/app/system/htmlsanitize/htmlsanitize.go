// Package htmlsanitize strips markup from free-text fields before storage.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding are peeled off.
const maxPasses = 8

// PlainText removes every HTML element from s and returns the remaining text,
// trimmed. Entities are decoded so "Tom & Jerry" round-trips unchanged, and
// decoding is repeated until nothing changes so entity-encoded markup is
// stripped too. PlainText(PlainText(s)) == PlainText(s).
//
// Input still changing after maxPasses is returned in its escaped form.
func PlainText(s string) string {
	cur := strings.TrimSpace(s)
	for i := 0; i < maxPasses; i++ {
		if cur == "" {
			return ""
		}
		sanitized := strict.Sanitize(cur)
		next := strings.TrimSpace(html.UnescapeString(sanitized))
		if next == cur {
			return next
		}
		cur = next
	}
	return strings.TrimSpace(strict.Sanitize(cur))
}
