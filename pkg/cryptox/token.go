package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// Secret size constants (in bytes before encoding).
const (
	// SecretSize256 is the minimum we hand out for HMAC signing secrets.
	SecretSize256 = 32
	// SecretSize512 matches the SHA-512 block size.
	SecretSize512 = 64
)

// GenerateToken returns size random bytes encoded as base64url without
// padding. It is used for signing secrets printed by the CLI.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token
// (43 chars, base64url). Stores persist the fingerprint of the current
// refresh token instead of the token itself.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// EqualFingerprints compares two fingerprints in constant time. An empty
// stored fingerprint never matches.
func EqualFingerprints(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
