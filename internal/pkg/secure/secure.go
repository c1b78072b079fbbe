// Package secure holds the keyed hashing primitives shared by token signing,
// password storage and verification challenges.
package secure

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/go-rental-kyc/internal/domain"
)

const saltBytes = 16

// Sign returns the raw HMAC-SHA-256 of data keyed by key.
// An empty key is a configuration error and is never silently accepted.
func Sign(data, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("hmac key missing: %w", domain.ErrConfiguration)
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return mac.Sum(nil), nil
}

// Hash returns the hex-encoded HMAC-SHA-256 of value keyed by salt.
// The same inputs always produce the same digest.
func Hash(value, salt string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("value to hash is empty: %w", domain.ErrValidation)
	}
	sum, err := Sign(value, salt)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

// Equal compares two digests in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Matches re-hashes plaintext under salt and compares it with digest.
func Matches(plaintext, salt, digest string) (bool, error) {
	if plaintext == "" || digest == "" {
		return false, nil
	}
	got, err := Hash(plaintext, salt)
	if err != nil {
		return false, err
	}
	return Equal(got, digest), nil
}

// GenerateSalt returns a fresh random per-user salt. Never log the result.
func GenerateSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}
