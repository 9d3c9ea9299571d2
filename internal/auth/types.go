package auth

import (
	"context"
	"time"
)

// Principal is the authenticated caller of a request. It is produced per
// request by a Verifier and lives only for that request.
type Principal struct {
	ID    string   `json:"uid"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// User is a stored account record.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// Verifier validates a bearer credential and yields the principal it
// represents. Implementations return ErrInvalidCredential for anything
// that does not verify.
type Verifier interface {
	Verify(token string) (*Principal, error)
}

type contextKey struct{}

// WithPrincipal returns a context carrying the given principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored by the auth middleware, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKey{}).(*Principal)
	return p
}
