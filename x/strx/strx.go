// Package strx holds small string helpers for env and profile values.
package strx

import "strings"

// Coalesce returns s trimmed, or d when s is blank.
func Coalesce(s, d string) string {
	if s = strings.TrimSpace(s); s == "" {
		return d
	}
	return s
}
