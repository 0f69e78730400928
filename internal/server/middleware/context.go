package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKey struct{ name string }

var requestInfoKey = contextKey{"request_info"}

// RequestInfo is filled in while a request is handled: the client IP up front, the identity
// once the caller is authenticated (by the auth middleware or by a handler that logs a user in).
// Outer middleware such as Audit read it after the handler returns.
type RequestInfo struct {
	ClientIP  string
	UserID    string
	SessionID string
}

// WithRequestInfo attaches info to ctx.
func WithRequestInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey, info)
}

func requestInfo(ctx context.Context) *RequestInfo {
	info, _ := ctx.Value(requestInfoKey).(*RequestInfo)
	return info
}

// SetIdentity records the authenticated user and session for the current request.
func SetIdentity(ctx context.Context, userID, sessionID string) {
	if info := requestInfo(ctx); info != nil {
		info.UserID = userID
		info.SessionID = sessionID
	}
}

// GetUserID returns the authenticated user id and true if set.
func GetUserID(ctx context.Context) (string, bool) {
	if info := requestInfo(ctx); info != nil && info.UserID != "" {
		return info.UserID, true
	}
	return "", false
}

// GetSessionID returns the authenticated session id and true if set.
func GetSessionID(ctx context.Context) (string, bool) {
	if info := requestInfo(ctx); info != nil && info.SessionID != "" {
		return info.SessionID, true
	}
	return "", false
}

// GetClientIP returns the client IP recorded for the request, or "".
func GetClientIP(ctx context.Context) string {
	if info := requestInfo(ctx); info != nil {
		return info.ClientIP
	}
	return ""
}

// RequestInfoMiddleware attaches a fresh RequestInfo to every request. It must run outside
// Auth and Audit.
func RequestInfoMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &RequestInfo{ClientIP: ClientIP(r)}
		next.ServeHTTP(w, r.WithContext(WithRequestInfo(r.Context(), info)))
	})
}

// ClientIP returns the client IP from X-Forwarded-For, X-Real-IP or the remote address, or "unknown".
func ClientIP(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); v != "" {
		if i := strings.Index(v, ","); i > 0 {
			v = strings.TrimSpace(v[:i])
		}
		return v
	}
	if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
		return v
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}
