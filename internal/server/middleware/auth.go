// Package middleware holds the chi middleware of the public HTTP API: bearer authentication,
// audit logging, request metrics and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	sessiondomain "psup-auth/internal/session/domain"
)

const bearerPrefix = "bearer "

// Authenticator resolves a bearer token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*sessiondomain.Session, error)
}

// RequireAuth rejects requests without a valid bearer token with 401 and records the
// session identity on the request otherwise.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}
			sess, err := auth.Authenticate(r.Context(), token)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}
			SetIdentity(r.Context(), sess.UserID, sess.ID)
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing or invalid authorization"})
}

// BearerToken returns the bearer token of r, or "" if missing or malformed.
func BearerToken(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
