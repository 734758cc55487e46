package client

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenSigner issues short-lived HS256 bearer tokens identifying this service to the card network.
type TokenSigner struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenSigner returns nil when secret is empty, which disables outbound auth.
func NewTokenSigner(secret, issuer, audience string, ttl time.Duration) *TokenSigner {
	if secret == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TokenSigner{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Sign returns a compact JWS carrying iss, aud, iat, exp and a unique jti.
func (s *TokenSigner) Sign() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
