package secret

import "crypto/subtle"

// Verify compares two hex-encoded digests in constant time. The comparison
// accumulates a bitwise difference across the full length of the input, so
// the running time does not depend on the position of the first differing
// byte.
//
// When the lengths differ the digests cannot match, but a full comparison
// pass is still performed against a dummy buffer of equal length before
// returning, so length mismatches do not short-circuit measurably faster
// than content mismatches.
func Verify(stored, computed string) bool {
	a := []byte(stored)
	b := []byte(computed)

	if len(a) != len(b) {
		dummy := make([]byte, len(a))
		subtle.ConstantTimeCompare(a, dummy)
		return false
	}

	return subtle.ConstantTimeCompare(a, b) == 1
}
