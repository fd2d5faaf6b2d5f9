// Package normalize turns raw spreadsheet cells into typed values.
package normalize

import "strings"

// OptionalString trims s and returns nil when nothing is left.
func OptionalString(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}

// String trims s.
func String(s string) string {
	return strings.TrimSpace(s)
}
