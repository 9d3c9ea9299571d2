package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hazemkhaled/raggate/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestTokenRoundTrip(t *testing.T) {
	authority := NewTokenAuthority("test-secret", time.Hour)

	p := &Principal{ID: "u1", Email: "alice@company.com", Roles: []string{"sales"}}
	token, err := authority.Issue(p)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := authority.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.ID != "u1" || got.Email != "alice@company.com" {
		t.Errorf("principal = %+v", got)
	}
	if len(got.Roles) != 1 || got.Roles[0] != "sales" {
		t.Errorf("Roles = %v, want [sales]", got.Roles)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	authority := NewTokenAuthority("test-secret", time.Hour)

	if _, err := authority.Verify("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenAuthority("secret-a", time.Hour)
	verifier := NewTokenAuthority("secret-b", time.Hour)

	token, err := issuer.Issue(&Principal{ID: "u1", Roles: []string{"all"}})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	authority := NewTokenAuthority("test-secret", -time.Minute)

	token, err := authority.Issue(&Principal{ID: "u1", Roles: []string{"all"}})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := authority.Verify(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestStoreAuthenticate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.Upsert(ctx, "u1", "alice@company.com", "pass1234", []string{"sales"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	p, err := store.Authenticate(ctx, "alice@company.com", "pass1234")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.ID != "u1" {
		t.Errorf("ID = %q, want u1", p.ID)
	}

	if _, err := store.Authenticate(ctx, "alice@company.com", "wrong"); err == nil {
		t.Error("expected error for wrong password")
	}
	if _, err := store.Authenticate(ctx, "nobody@company.com", "pass1234"); err == nil {
		t.Error("expected error for unknown email")
	}
}

func TestRequireMiddleware(t *testing.T) {
	authority := NewTokenAuthority("test-secret", time.Hour)

	var seen *Principal
	handler := Require(authority)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Missing header.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/chat/ask", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: code = %d, want 401", w.Code)
	}

	// Invalid token.
	req := httptest.NewRequest("POST", "/chat/ask", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: code = %d, want 401", w.Code)
	}

	// Valid token.
	token, err := authority.Issue(&Principal{ID: "u1", Email: "alice@company.com", Roles: []string{"sales"}})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	req = httptest.NewRequest("POST", "/chat/ask", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: code = %d, want 200", w.Code)
	}
	if seen == nil || seen.ID != "u1" {
		t.Errorf("principal in context = %+v, want u1", seen)
	}
}

func TestLoginRoute(t *testing.T) {
	store := setupTestStore(t)
	authority := NewTokenAuthority("test-secret", time.Hour)

	r := chi.NewRouter()
	RegisterRoutes(r, store, authority, zap.NewNop())

	// Seed demo users through the endpoint.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/auth/seed", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("seed: code = %d, want 200", w.Code)
	}

	body, _ := json.Marshal(map[string]string{"email": "alice@company.com", "password": "pass1234"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("login: code = %d, body = %s", w.Code, w.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
	if resp.User == nil || resp.User.ID != "u1" {
		t.Errorf("user = %+v, want u1", resp.User)
	}

	// Round-trip through the verifier.
	p, err := authority.Verify(resp.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.ID != "u1" {
		t.Errorf("verified principal = %+v", p)
	}

	// Bad password.
	body, _ = json.Marshal(map[string]string{"email": "alice@company.com", "password": "nope"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body)))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: code = %d, want 401", w.Code)
	}
}
