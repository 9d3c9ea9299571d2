package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hazemkhaled/raggate/internal/httpapi"
)

// SeedUser describes a demo account inserted by Seed.
type SeedUser struct {
	ID       string
	Email    string
	Password string
	Roles    []string
}

// DefaultSeedUsers are the demo accounts created by /auth/seed and the
// seed CLI command.
var DefaultSeedUsers = []SeedUser{
	{ID: "u1", Email: "alice@company.com", Password: "pass1234", Roles: []string{"sales"}},
	{ID: "u2", Email: "bob@company.com", Password: "pass1234", Roles: []string{"engineering"}},
}

// RegisterRoutes mounts the authentication endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store, authority *TokenAuthority, logger *zap.Logger) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", handleLogin(store, authority, logger))
		r.Post("/seed", handleSeed(store, logger))
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  *Principal `json:"user"`
}

func handleLogin(store *Store, authority *TokenAuthority, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.WriteError(w, httpapi.InvalidRequest("invalid request body"))
			return
		}

		principal, err := store.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			logger.Warn("login rejected", zap.String("email", req.Email))
			httpapi.WriteError(w, httpapi.Unauthorized("invalid credentials"))
			return
		}

		token, err := authority.Issue(principal)
		if err != nil {
			logger.Error("issuing token", zap.Error(err))
			httpapi.WriteError(w, err)
			return
		}

		logger.Info("login succeeded", zap.String("user_id", principal.ID))
		httpapi.WriteJSON(w, http.StatusOK, loginResponse{Token: token, User: principal})
	}
}

func handleSeed(store *Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := Seed(r.Context(), store); err != nil {
			logger.Error("seeding users", zap.Error(err))
			httpapi.WriteError(w, err)
			return
		}
		httpapi.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// Seed inserts the default demo users.
func Seed(ctx context.Context, store *Store) error {
	for _, u := range DefaultSeedUsers {
		if _, err := store.Upsert(ctx, u.ID, u.Email, u.Password, u.Roles); err != nil {
			return err
		}
	}
	return nil
}
