package security

import (
	"crypto/rand"
	"crypto/rsa"
	"time"
)

// NewTestTokenProvider returns a TokenProvider backed by a freshly generated
// RSA key pair. For unit tests only; key generation is too slow and the claims
// too permissive for anything else.
func NewTestTokenProvider() (*TokenProvider, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return NewTokenProvider(key, &key.PublicKey, "test-issuer", "test-audience", 15*time.Minute, 24*time.Hour), nil
}
