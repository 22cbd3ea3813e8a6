package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed or invalid.
var ErrInvalidToken = errors.New("invalid token")

// Claims holds the JWT claims for both access and refresh tokens. Subject is
// the caregiver ID; Use distinguishes the two token types so one cannot be
// presented where the other is expected.
type Claims struct {
	jwt.RegisteredClaims
	Use string `json:"use"`
}

const (
	useAccess  = "access"
	useRefresh = "refresh"
)

// TokenProvider issues and validates JWT access and refresh tokens using RS256 or ES256 (private/public key).
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given private key (RS256 or ES256).
// issuer and audience are set on claims and validated on every parse.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess issues a short-lived access JWT for the caregiver.
// Returns the token string, its jti, and expiration time.
func (p *TokenProvider) IssueAccess(ownerID string) (token string, jti string, expiresAt time.Time, err error) {
	return p.issue(ownerID, useAccess, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh JWT. The caller stores a hash of
// the token on the caregiver record so rotation invalidates older tokens.
func (p *TokenProvider) IssueRefresh(ownerID string) (token, jti string, expiresAt time.Time, err error) {
	return p.issue(ownerID, useRefresh, p.refreshTTL)
}

func (p *TokenProvider) issue(ownerID, use string, ttl time.Duration) (token, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   ownerID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Use: use,
	}
	token, err = p.sign(claims)
	return token, jti, expiresAt, err
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

// ValidateAccess parses and validates an access token (signature, exp, iss,
// aud, use). Returns the caregiver ID from the subject claim.
func (p *TokenProvider) ValidateAccess(tokenString string) (ownerID string, err error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Use != useAccess {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// ValidateRefresh parses and validates a refresh token (signature, exp, iss,
// aud, use). Returns the caregiver ID and the token's jti.
func (p *TokenProvider) ValidateRefresh(tokenString string) (ownerID, jti string, err error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return "", "", err
	}
	if claims.Use != useRefresh {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.ID, nil
}

func (p *TokenProvider) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return p.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return p.publicKey, nil
		}
		return nil, ErrInvalidToken
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
