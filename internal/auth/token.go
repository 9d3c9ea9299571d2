package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingCredential indicates no bearer token was supplied.
	ErrMissingCredential = errors.New("missing auth")
	// ErrInvalidCredential indicates the supplied token did not verify.
	ErrInvalidCredential = errors.New("invalid token")
)

// claims is the JWT payload carried by raggate tokens.
type claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenAuthority issues and verifies HMAC-signed bearer tokens. It
// implements Verifier.
type TokenAuthority struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenAuthority creates a TokenAuthority with the given signing secret
// and token lifetime.
func NewTokenAuthority(secret string, ttl time.Duration) *TokenAuthority {
	return &TokenAuthority{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given principal.
func (a *TokenAuthority) Issue(p *Principal) (string, error) {
	now := time.Now()
	c := claims{
		Email: p.Email,
		Roles: p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the principal it encodes.
func (a *TokenAuthority) Verify(tokenStr string) (*Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredential
	}

	roles := c.Roles
	if len(roles) == 0 {
		roles = []string{"all"}
	}
	return &Principal{ID: c.Subject, Email: c.Email, Roles: roles}, nil
}
