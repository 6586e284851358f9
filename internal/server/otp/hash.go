package otp

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashCode returns the hex-encoded SHA-256 digest of a plaintext code.
// Codes are single-use and short-lived, so a plain digest (no salt) is
// enough to keep the plaintext out of the store.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// digestsEqual compares two stored digests in constant time.
func digestsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
