package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/cleanstack/authcore/identity"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyIdentity stores the authenticated identity
const ContextKeyIdentity ContextKey = "identity"

// IdentityFromContext extracts the identity injected by RequireAuth.
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(ContextKeyIdentity).(identity.Identity)
	return id, ok
}

// RequireAuth validates the Bearer access token and injects the identity into
// the request context. Absent or invalid tokens are rejected with the
// authorization-denied status; it is then the client's job to react.
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "You are not authorized")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			writeError(w, http.StatusUnauthorized, "You are not authorized")
			return
		}

		id, err := s.codec.Validate(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "You are not authorized")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyIdentity, id)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole rejects authenticated requests whose identity lacks the role.
// Chain after RequireAuth.
func (s *Server) RequireRole(role string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || !id.HasRole(role) {
				writeError(w, http.StatusForbidden, "Insufficient role")
				return
			}
			next(w, r)
		}
	}
}
