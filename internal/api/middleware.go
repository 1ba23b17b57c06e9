package api

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const ownerKey contextKey = "owner"

// BearerAuthMiddleware rejects requests without the expected bearer token.
// An empty configured token disables the check (local development).
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OwnerMiddleware requires the caller identity forwarded by the gateway and
// stashes it in the request context. Everything downstream (rate limiting,
// persistence, ownership checks) is keyed on it.
func OwnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if owner == "" {
			writeError(w, http.StatusBadRequest, "missing X-User-ID header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
	})
}

func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey).(string)
	return owner
}
