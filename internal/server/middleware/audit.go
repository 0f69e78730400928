package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"psup-auth/internal/audit"
)

// Audit records one audit log entry per request once the handler returns, for requests with
// an identity. Action and resource come from the matched chi route. skipRoutes holds
// "METHOD /pattern" keys that are never audited.
func Audit(logger audit.AuditLogger, skipRoutes map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if logger == nil {
				return
			}
			userID, ok := GetUserID(r.Context())
			if !ok {
				return
			}
			pattern := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				pattern = rc.RoutePattern()
			}
			if skipRoutes[r.Method+" "+pattern] {
				return
			}
			ar := audit.ParseRoute(r.Method, pattern)
			logger.LogEvent(r.Context(), userID, ar.Action, ar.Resource, "")
		})
	}
}
