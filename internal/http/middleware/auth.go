package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shortssprint/shortssprint/internal/auth"
)

type contextKey string

const IdentityKey contextKey = "identity"

// RequireAuth rejects requests without a valid Bearer token and puts
// the verified identity on the request context.
func RequireAuth(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			id, err := issuer.Verify(raw)
			if err != nil {
				msg := "invalid token"
				if err == auth.ErrExpired {
					msg = "token expired"
				}
				unauthorized(w, msg)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the authenticated identity, if any.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(auth.Identity)
	return id, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "auth_failure",
		"message": msg,
	})
}
