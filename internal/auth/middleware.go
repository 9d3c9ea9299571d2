package auth

import (
	"net/http"
	"strings"

	"github.com/hazemkhaled/raggate/internal/httpapi"
)

// Require returns middleware that rejects requests without a valid bearer
// credential and stores the verified principal in the request context.
func Require(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httpapi.WriteError(w, httpapi.Unauthorized(ErrMissingCredential.Error()))
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			principal, err := v.Verify(token)
			if err != nil {
				httpapi.WriteError(w, httpapi.Unauthorized(ErrInvalidCredential.Error()))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
