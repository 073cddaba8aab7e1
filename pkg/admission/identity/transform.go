package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
)

// Transform derives a tracking key from a caller-supplied token.
//
// The transform must be deterministic (the same token always yields the
// same key) and one-way (the token cannot be recovered from the key).
// Strong reports whether the transform provides cryptographic
// pseudonymity; resolvers flag degraded mode when a weak transform is
// in use so a weaker hash is never silently mixed into a context
// expecting strong pseudonymity.
type Transform interface {
	// Derive maps a token to a stable, non-reversible key.
	Derive(token string) (string, error)

	// Strong reports whether the derivation is cryptographic.
	Strong() bool
}

// SHA256Transform derives keys with a SHA-256 digest. This is the
// default transform.
type SHA256Transform struct{}

// Derive returns the hex-encoded SHA-256 digest of the token.
func (SHA256Transform) Derive(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:]), nil
}

// Strong reports true.
func (SHA256Transform) Strong() bool { return true }

// FNVTransform derives keys with FNV-1a. It is a non-cryptographic
// fallback for platforms without a secure digest primitive; resolvers
// using it report degraded mode.
type FNVTransform struct{}

// Derive returns the hex-encoded FNV-1a hash of the token.
func (FNVTransform) Derive(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	h := fnv.New64a()
	h.Write([]byte(token))
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Strong reports false.
func (FNVTransform) Strong() bool { return false }
