package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"psup-auth/internal/identifier"
	"psup-auth/internal/metrics"
	"psup-auth/internal/notification"
	"psup-auth/internal/platform/rbac"
	"psup-auth/internal/rollover"
	"psup-auth/internal/server/middleware"
	"psup-auth/internal/signup/service"
)

const maxBodyBytes = 1 << 16

// errInvalidConfirmation is the single answer to unknown users, wrong secrets and malformed links,
// so the confirm endpoint cannot be used to probe usernames.
const errInvalidConfirmation = "invalid confirmation link"

type signupBody struct {
	PsupID    string `json:"psupid"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	WantsURL  string `json:"wantsurl"`
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (a *api) signup(w http.ResponseWriter, r *http.Request) {
	var body signupBody
	if !decodeBody(w, r, &body) {
		metrics.Signups.WithLabelValues("invalid").Inc()
		return
	}
	ctx := r.Context()
	res, err := a.Service.Signup(ctx, service.SignupRequest{
		PsupID:    body.PsupID,
		Password:  body.Password,
		Email:     body.Email,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		WantsURL:  a.safeRedirect(body.WantsURL, ""),
		IPAddress: middleware.GetClientIP(ctx),
	})
	if err != nil {
		var fe *identifier.FieldError
		if errors.As(err, &fe) {
			metrics.Signups.WithLabelValues("invalid").Inc()
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"errors": map[string]string{fe.Field: fe.Err.Error()},
			})
			return
		}
		metrics.Signups.WithLabelValues("error").Inc()
		a.Log.Error("signup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "signup failed")
		return
	}
	metrics.Signups.WithLabelValues("created").Inc()

	report, err := a.Dispatcher.Dispatch(ctx, res.Effects)
	if err != nil {
		a.Log.Error("signup side effects failed", zap.String("user_id", res.User.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "account created but login failed")
		return
	}
	resp := map[string]any{
		"user_id":      res.User.ID,
		"username":     res.User.Username,
		"notification": "sent",
	}
	if report.Login != nil {
		middleware.SetIdentity(ctx, report.Login.UserID, report.Login.SessionID)
		resp["token"] = report.Login.Token
		resp["expires_at"] = report.Login.ExpiresAt.UTC().Format(time.RFC3339)
	}
	if report.NotificationDegraded {
		metrics.ConfirmationEmails.WithLabelValues("failed").Inc()
		resp["notification"] = "degraded"
		resp["warning"] = "the confirmation email could not be sent, request a new one from your profile"
	} else {
		metrics.ConfirmationEmails.WithLabelValues("sent").Inc()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *api) confirm(w http.ResponseWriter, r *http.Request) {
	secret, username, ok := notification.ParseConfirmationData(r.URL.Query().Get("data"))
	if !ok {
		metrics.Confirmations.WithLabelValues("malformed").Inc()
		writeError(w, http.StatusBadRequest, errInvalidConfirmation)
		return
	}
	ctx := r.Context()
	out, err := a.Service.Confirm(ctx, username, secret)
	if err != nil {
		a.Log.Error("confirm failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "confirmation failed")
		return
	}
	metrics.Confirmations.WithLabelValues(out.Result.String()).Inc()

	switch out.Result {
	case service.ConfirmOK:
		redirect := a.safeRedirect(out.WantsURL, "/")
		a.rememberWantsURL(r, redirect)
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "confirmed",
			"username": out.User.Username,
			"redirect": redirect,
		})
	case service.ConfirmAlreadyConfirmed:
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "already_confirmed",
			"username": out.User.Username,
		})
	default:
		writeError(w, http.StatusBadRequest, errInvalidConfirmation)
	}
}

// rememberWantsURL stores the destination on the caller's session when the confirmation link
// is opened while logged in.
func (a *api) rememberWantsURL(r *http.Request, redirect string) {
	token := middleware.BearerToken(r)
	if token == "" {
		return
	}
	sess, err := a.Sessions.Authenticate(r.Context(), token)
	if err != nil || sess == nil {
		return
	}
	if err := a.Sessions.RememberWantsURL(r.Context(), sess.ID, redirect); err != nil {
		a.Log.Warn("store wantsurl on session failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func (a *api) resendConfirmation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)
	redirect := a.safeRedirect(r.URL.Query().Get("returnurl"), "/")

	err := a.Service.Resend(ctx, userID)
	var se *notification.SendError
	switch {
	case err == nil:
		metrics.ConfirmationEmails.WithLabelValues("sent").Inc()
		writeJSON(w, http.StatusOK, map[string]string{"status": "sent", "redirect": redirect})
	case errors.Is(err, service.ErrAlreadyConfirmed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotPsupUser):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &se):
		metrics.ConfirmationEmails.WithLabelValues("failed").Inc()
		a.Log.Warn("resend confirmation failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "the confirmation email could not be sent")
	default:
		a.Log.Error("resend confirmation failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "resend failed")
	}
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !decodeBody(w, r, &body) {
		return
	}
	ctx := r.Context()
	res, err := a.Service.Login(ctx, body.Username, body.Password, middleware.GetClientIP(ctx))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		metrics.Logins.WithLabelValues("error").Inc()
		a.Log.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	metrics.Logins.WithLabelValues("ok").Inc()
	middleware.SetIdentity(ctx, res.UserID, res.SessionID)
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":    res.UserID,
		"token":      res.Token,
		"expires_at": res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := middleware.GetSessionID(r.Context())
	if err := a.Service.Logout(r.Context(), sessionID); err != nil {
		a.Log.Error("logout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	UsernameLabel  string `json:"username_label"`
	Email          string `json:"email"`
	FirstName      string `json:"firstname"`
	LastName       string `json:"lastname"`
	Auth           string `json:"auth"`
	EmailConfirmed bool   `json:"email_confirmed"`
	PsupID         string `json:"psupid,omitempty"`
	PsupSession    string `json:"psupsession,omitempty"`
	ResendURL      string `json:"resend_url,omitempty"`
}

func (a *api) me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	p, err := a.Service.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		a.Log.Error("get profile failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "profile unavailable")
		return
	}
	resp := meResponse{
		ID:             p.User.ID,
		Username:       p.User.Username,
		UsernameLabel:  p.UsernameLabel,
		Email:          p.User.Email,
		FirstName:      p.User.FirstName,
		LastName:       p.User.LastName,
		Auth:           p.User.Auth,
		EmailConfirmed: p.EmailConfirmed,
		PsupID:         p.Record.PsupID,
		PsupSession:    p.Record.Session,
	}
	if p.NeedsConfirmation {
		resp.ResendURL = a.PublicURL + "/resendconfirmation?returnurl=" + url.QueryEscape("/me")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) capabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Service.Capabilities())
}

func (a *api) rollover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := rbac.RequireSystemRole(ctx, a.Roles, rbac.RoleManager); err != nil {
		switch {
		case errors.Is(err, rbac.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, rbac.ErrForbidden):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			a.Log.Error("authorize rollover failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "authorization failed")
		}
		return
	}
	job := rollover.NewJob(strings.TrimSpace(r.URL.Query().Get("session")), a.now())
	if err := a.Rollover.Enqueue(ctx, job); err != nil {
		if errors.Is(err, rollover.ErrQueueFull) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		a.Log.Error("enqueue rollover failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not enqueue rollover")
		return
	}
	a.Log.Info("rollover enqueued", zap.String("job_id", job.ID), zap.String("session", job.Session))
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID, "session": job.Session})
}

// safeRedirect returns raw when it is a local path or an absolute URL under PublicURL,
// and fallback otherwise.
func (a *api) safeRedirect(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	if u.Scheme == "" && u.Host == "" {
		if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") && !strings.HasPrefix(raw, "/\\") {
			return raw
		}
		return fallback
	}
	base, err := url.Parse(a.PublicURL)
	if err != nil || base.Host == "" {
		return fallback
	}
	if strings.EqualFold(u.Scheme, base.Scheme) && strings.EqualFold(u.Host, base.Host) {
		return raw
	}
	return fallback
}
