package service

import (
	"context"
	"errors"
	"fmt"

	"psup-auth/internal/security"
	userdomain "psup-auth/internal/user/domain"
)

// Login authenticates a psup user by username and password and starts a session.
// Unknown users, users of other auth methods and wrong passwords all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password, ip string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil || !u.IsPsup() || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}
	return s.sessions.Start(ctx, u, ip)
}

// Logout revokes the caller's session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Logout(ctx, sessionID)
}

// Capabilities describes what the psup auth method supports.
type Capabilities struct {
	ChangePassword   bool `json:"change_password"`
	ResetPassword    bool `json:"reset_password"`
	Signup           bool `json:"signup"`
	Confirm          bool `json:"confirm"`
	Internal         bool `json:"internal"`
	ManuallySettable bool `json:"manually_settable"`
}

// Capabilities returns the flags of the psup auth method: passwords are stored locally,
// so everything is supported.
func (s *Service) Capabilities() Capabilities {
	return Capabilities{
		ChangePassword:   true,
		ResetPassword:    true,
		Signup:           true,
		Confirm:          true,
		Internal:         true,
		ManuallySettable: true,
	}
}

// Username labels.
const (
	LabelPsupIdentifier = "Parcoursup Identifier"
	LabelUsername       = "Username"
)

// UsernameLabel returns how the username field is titled when viewer looks at user's profile:
// psup users see their own username as their Parcoursup identifier.
func UsernameLabel(viewer, user *userdomain.User) string {
	if viewer != nil && user != nil && viewer.ID == user.ID && user.IsPsup() {
		return LabelPsupIdentifier
	}
	return LabelUsername
}
