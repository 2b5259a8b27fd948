// Package plate normalizes and validates vehicle license identifiers. The
// normalized plate is the natural key for parking records.
package plate

import "strings"

// Normalize strips everything outside [A-Za-z0-9] and uppercases the rest.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether a normalized plate is 5 to 12 uppercase letters or
// digits.
func Valid(p string) bool {
	if len(p) < 5 || len(p) > 12 {
		return false
	}
	for _, r := range p {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
