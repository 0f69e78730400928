package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"psup-auth/internal/preference"
	"psup-auth/internal/security"
	userdomain "psup-auth/internal/user/domain"
)

// ConfirmResult is the outcome of following a confirmation link.
type ConfirmResult int

const (
	// ConfirmOK: the email address is now confirmed.
	ConfirmOK ConfirmResult = iota + 1
	// ConfirmAlreadyConfirmed: the secret matched and the address was confirmed earlier.
	ConfirmAlreadyConfirmed
	// ConfirmSecretMismatch: the user exists but the secret is wrong.
	ConfirmSecretMismatch
	// ConfirmPrincipalNotFound: no psup user has this username.
	ConfirmPrincipalNotFound
)

func (r ConfirmResult) String() string {
	switch r {
	case ConfirmOK:
		return "ok"
	case ConfirmAlreadyConfirmed:
		return "already_confirmed"
	case ConfirmSecretMismatch:
		return "secret_mismatch"
	case ConfirmPrincipalNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ConfirmOutcome carries the result and, on ConfirmOK, the page the user wanted before signing up.
type ConfirmOutcome struct {
	Result   ConfirmResult
	User     *userdomain.User
	WantsURL string
}

// Confirm moves the user from unconfirmed to confirmed when secret matches. It never reverts a
// confirmed user. Results are values; only storage failures are returned as errors.
func (s *Service) Confirm(ctx context.Context, username, secret string) (ConfirmOutcome, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return ConfirmOutcome{}, fmt.Errorf("get user: %w", err)
	}
	if u == nil || !u.IsPsup() {
		return ConfirmOutcome{Result: ConfirmPrincipalNotFound}, nil
	}
	if !security.SecretEqual(secret, u.Secret) {
		return ConfirmOutcome{Result: ConfirmSecretMismatch, User: u}, nil
	}
	confirmed, err := s.isConfirmed(ctx, u.ID)
	if err != nil {
		return ConfirmOutcome{}, err
	}
	if confirmed {
		return ConfirmOutcome{Result: ConfirmAlreadyConfirmed, User: u}, nil
	}

	wantsURL, _, err := s.prefs.Get(ctx, u.ID, preference.WantsURL)
	if err != nil {
		return ConfirmOutcome{}, fmt.Errorf("get wantsurl: %w", err)
	}
	if wantsURL != "" {
		if err := s.prefs.Unset(ctx, u.ID, preference.WantsURL); err != nil {
			return ConfirmOutcome{}, fmt.Errorf("clear wantsurl: %w", err)
		}
	}
	if err := s.prefs.Set(ctx, u.ID, preference.EmailConfirmed, preference.Confirmed); err != nil {
		return ConfirmOutcome{}, fmt.Errorf("store confirmation flag: %w", err)
	}
	s.log.Info("psup user confirmed email", zap.String("user_id", u.ID))
	return ConfirmOutcome{Result: ConfirmOK, User: u, WantsURL: wantsURL}, nil
}

// isConfirmed treats a missing flag as unconfirmed.
func (s *Service) isConfirmed(ctx context.Context, userID string) (bool, error) {
	v, _, err := s.prefs.Get(ctx, userID, preference.EmailConfirmed)
	if err != nil {
		return false, fmt.Errorf("get confirmation flag: %w", err)
	}
	return v == preference.Confirmed, nil
}

// Resend sends the confirmation email again for an authenticated, still unconfirmed psup user.
// Delivery failures are returned as *notification.SendError.
func (s *Service) Resend(ctx context.Context, userID string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	if !u.IsPsup() {
		return ErrNotPsupUser
	}
	confirmed, err := s.isConfirmed(ctx, u.ID)
	if err != nil {
		return err
	}
	if confirmed {
		return ErrAlreadyConfirmed
	}
	return s.notifier.Resend(ctx, u)
}
