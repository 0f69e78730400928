package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psup-auth/internal/event"
	"psup-auth/internal/security"
	sessiondomain "psup-auth/internal/session/domain"
	userdomain "psup-auth/internal/user/domain"
)

// ErrInvalidSession is returned by Authenticate for unknown, revoked or expired sessions.
var ErrInvalidSession = errors.New("invalid or expired session")

// SessionRepo is the minimal session repository needed to log users in and out.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
	SetWantsURL(ctx context.Context, id, url string) error
}

// LoginResult is a started session and its bearer token.
type LoginResult struct {
	SessionID string
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// SessionStarter creates sessions, issues their tokens and emits user_loggedin.
type SessionStarter struct {
	sessions SessionRepo
	tokens   *security.TokenProvider
	events   EventSink
	log      *zap.Logger
}

// NewSessionStarter returns a SessionStarter. events may be nil.
func NewSessionStarter(sessions SessionRepo, tokens *security.TokenProvider, events EventSink, log *zap.Logger) *SessionStarter {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionStarter{sessions: sessions, tokens: tokens, events: events, log: log}
}

// Start logs u in: it persists a session, signs a token for it and emits user_loggedin.
func (st *SessionStarter) Start(ctx context.Context, u *userdomain.User, ip string) (*LoginResult, error) {
	sessionID := uuid.New().String()
	token, expiresAt, err := st.tokens.IssueSession(sessionID, u.ID, u.Username)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:         sessionID,
		UserID:     u.ID,
		ExpiresAt:  expiresAt,
		LastSeenAt: &now,
		IPAddress:  ip,
		CreatedAt:  now,
	}
	if err := st.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if st.events != nil {
		if err := st.events.Emit(ctx, event.NewUserLoggedIn(u.ID, u.Username)); err != nil {
			st.log.Warn("login event not delivered", zap.String("user_id", u.ID), zap.Error(err))
		}
	}
	return &LoginResult{SessionID: sessionID, UserID: u.ID, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate validates a bearer token and its session. It returns the live session.
func (st *SessionStarter) Authenticate(ctx context.Context, token string) (*sessiondomain.Session, error) {
	sessionID, userID, err := st.tokens.ValidateSession(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	sess, err := st.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if sess == nil || sess.UserID != userID || !sess.Active(now) {
		return nil, ErrInvalidSession
	}
	if err := st.sessions.UpdateLastSeen(ctx, sess.ID, now); err != nil {
		st.log.Debug("update last seen failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	return sess, nil
}

// Logout revokes the session. Revoking an unknown or revoked session is a no-op.
func (st *SessionStarter) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return st.sessions.Revoke(ctx, sessionID)
}

// RememberWantsURL stores where the session should land after confirmation.
func (st *SessionStarter) RememberWantsURL(ctx context.Context, sessionID, url string) error {
	if sessionID == "" || url == "" {
		return nil
	}
	return st.sessions.SetWantsURL(ctx, sessionID, url)
}
