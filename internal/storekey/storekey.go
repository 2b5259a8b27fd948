// Package storekey derives store keys from account emails.
//
// The first generation of the product formed the key by replacing only the
// first "." in the email, which can collide two distinct addresses
// (tom.z@x.com and tom_z@x.com both map to tom_z@x_com after two passes).
// Encode uses a reversible escape instead; Legacy keeps the old mapping so
// records written under it stay reachable on read.
package storekey

import (
	"fmt"
	"strings"
)

// Encode maps an email to a collision-free store key. Bytes outside
// [A-Za-z0-9@-] are escaped as _XX (uppercase hex); "_" itself escapes to
// _5F, which makes the mapping reversible.
func Encode(email string) string {
	var b strings.Builder
	b.Grow(len(email))
	for i := 0; i < len(email); i++ {
		c := email[i]
		if isSafe(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "_%02X", c)
	}
	return b.String()
}

// Decode reverses Encode.
func Decode(key string) (string, error) {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c != '_' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(key) {
			return "", fmt.Errorf("storekey: truncated escape in %q", key)
		}
		var decoded byte
		if _, err := fmt.Sscanf(key[i+1:i+3], "%02X", &decoded); err != nil {
			return "", fmt.Errorf("storekey: bad escape in %q: %w", key, err)
		}
		b.WriteByte(decoded)
		i += 2
	}
	return b.String(), nil
}

// Legacy reproduces the original key derivation: the first "." replaced by
// "_". Lossy, kept only as a read fallback.
func Legacy(email string) string {
	return strings.Replace(email, ".", "_", 1)
}

// Candidates returns the keys under which an account may be stored, current
// encoding first.
func Candidates(email string) []string {
	enc := Encode(email)
	leg := Legacy(email)
	if leg == enc {
		return []string{enc}
	}
	return []string{enc, leg}
}

func isSafe(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '@' || c == '-':
		return true
	}
	return false
}
