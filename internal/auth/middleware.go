package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey int

const userContextKey contextKey = iota

// UserFrom returns the authenticated user stored by RequireUser, or
// nil on unauthenticated requests.
func UserFrom(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}

// RequireUser rejects requests without a valid bearer token and stores
// the resolved user on the request context.
func (s *Service) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

// RequireAdmin additionally rejects non-admin users with 403.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		if !user.IsAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

func (s *Service) authenticate(w http.ResponseWriter, r *http.Request) (*User, bool) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}
	userID, err := s.parseToken(raw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return nil, false
	}
	user, err := s.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return nil, false
	}
	return user, true
}
