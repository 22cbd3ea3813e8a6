package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashRefreshToken returns the hex-encoded SHA-256 of a refresh token. Only
// the hash is stored on the caregiver row; the raw token never touches the
// database.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenHashEqual reports whether the presented token matches the
// stored hash. The comparison is constant-time. A mismatch means the token
// was superseded by a later login or refresh.
func RefreshTokenHashEqual(presentedToken, storedHash string) bool {
	presented := HashRefreshToken(presentedToken)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(storedHash)) == 1
}
