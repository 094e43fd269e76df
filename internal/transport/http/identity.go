package http

import (
	"context"
	"net/http"

	"quiz-platform-service/internal/domain"
)

// Identity arrives pre-verified from the upstream identity service; this
// layer only consumes the (user, role) pair, never credentials.
const (
	headerUserID = "X-User-Id"
	headerRole   = "X-User-Role"
)

type identityKey struct{}

// WithIdentity extracts the verified caller from trusted headers and
// rejects requests that carry none.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		role := domain.Role(r.Header.Get(headerRole))
		if userID == "" || (role != domain.RoleAdmin && role != domain.RoleUser) {
			http.Error(w, "missing or invalid identity", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, domain.Identity{UserID: userID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) domain.Identity {
	id, _ := r.Context().Value(identityKey{}).(domain.Identity)
	return id
}
