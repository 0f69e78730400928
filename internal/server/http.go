// Package server wires the public HTTP API (chi) and the internal gRPC health server.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"psup-auth/internal/audit"
	"psup-auth/internal/health"
	"psup-auth/internal/metrics"
	"psup-auth/internal/platform/rbac"
	"psup-auth/internal/rollover"
	"psup-auth/internal/server/middleware"
	"psup-auth/internal/signup/service"
)

// SignupService is the account lifecycle used by the handlers.
type SignupService interface {
	Signup(ctx context.Context, req service.SignupRequest) (*service.SignupResult, error)
	Confirm(ctx context.Context, username, secret string) (service.ConfirmOutcome, error)
	Resend(ctx context.Context, userID string) error
	Login(ctx context.Context, username, password, ip string) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Me(ctx context.Context, userID string) (*service.Profile, error)
	Capabilities() service.Capabilities
}

// EffectDispatcher executes signup side effects.
type EffectDispatcher interface {
	Dispatch(ctx context.Context, effects []service.Effect) (*service.DispatchReport, error)
}

// Sessions authenticates bearer tokens and remembers post-confirmation destinations.
type Sessions interface {
	middleware.Authenticator
	RememberWantsURL(ctx context.Context, sessionID, url string) error
}

// Deps holds the collaborators of the HTTP API.
type Deps struct {
	Service    SignupService
	Dispatcher EffectDispatcher
	Sessions   Sessions
	// Roles authorizes administrative routes.
	Roles rbac.AssignedRoleLister
	// Rollover receives rollover jobs from POST /admin/rollover.
	Rollover rollover.Queue
	// Audit records one entry per authenticated request. Optional.
	Audit audit.AuditLogger
	// Health backs /healthz and /readyz. Optional.
	Health *health.Checker
	// PublicURL is the external base URL; redirects outside it are refused.
	PublicURL string
	Log       *zap.Logger
}

type api struct {
	Deps
	now func() time.Time
}

// NewRouter returns the chi router of the public API.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Health == nil {
		d.Health = health.NewChecker(nil)
	}
	a := &api{Deps: d, now: time.Now}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestInfoMiddleware)
	r.Use(middleware.Telemetry(d.Log))
	r.Use(middleware.Audit(d.Audit, nil))

	r.Get("/healthz", d.Health.Live)
	r.Get("/readyz", d.Health.Ready)
	r.Handle("/metrics", metrics.Handler())

	r.Post("/signup", a.signup)
	r.Get("/confirm", a.confirm)
	r.Post("/login", a.login)
	r.Get("/capabilities", a.capabilities)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Sessions))
		r.Post("/resendconfirmation", a.resendConfirmation)
		r.Post("/logout", a.logout)
		r.Get("/me", a.me)
		r.Post("/admin/rollover", a.rollover)
	})
	return r
}
