package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hazemkhaled/raggate/internal/db"
)

// ErrNotFound indicates no user matched the lookup.
var ErrNotFound = errors.New("user not found")

// Store provides account persistence over the shared database.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Upsert inserts or replaces a user. If id is empty a UUID is generated.
// The password is stored as a bcrypt hash.
func (s *Store) Upsert(ctx context.Context, id, email, password string, roles []string) (*User, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if len(roles) == 0 {
		roles = []string{"all"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return nil, fmt.Errorf("marshalling roles: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, roles) VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET password_hash = excluded.password_hash, roles = excluded.roles`,
		id, email, string(hash), string(rolesJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	return s.FindByEmail(ctx, email)
}

// FindByEmail retrieves a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, roles, created_at
		FROM users WHERE email = ?`, email)

	var (
		u         User
		rolesJSON string
		ts        string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &rolesJSON, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if err := json.Unmarshal([]byte(rolesJSON), &u.Roles); err != nil {
		u.Roles = []string{"all"}
	}
	if t, err := time.Parse(time.DateTime, ts); err == nil {
		u.CreatedAt = t
	}

	return &u, nil
}

// Authenticate checks the email/password pair and returns the matching
// principal, or ErrNotFound when the pair does not verify. A wrong password
// is indistinguishable from an unknown email.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrNotFound
	}

	roles := u.Roles
	if len(roles) == 0 {
		roles = []string{"all"}
	}
	return &Principal{ID: u.ID, Email: u.Email, Roles: roles}, nil
}
