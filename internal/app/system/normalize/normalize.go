// Package normalize holds the canonical cleanup applied to user-entered values
// before they are stored or compared.
package normalize

import (
	"strings"
	"time"
)

// RoleName trims s and collapses every internal run of whitespace to a single
// space. It is idempotent: RoleName(RoleName(s)) == RoleName(s).
func RoleName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Name trims surrounding whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a user role.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a raw query-string value and preserves case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Date truncates t to midnight UTC of its calendar day. Assignment dates are
// calendar dates, so every stored or compared date goes through here.
func Date(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date for optional values.
func DatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Date(*t)
	return &d
}
