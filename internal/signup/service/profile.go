package service

import (
	"context"
	"fmt"

	profiledomain "psup-auth/internal/profilefield/domain"
	userdomain "psup-auth/internal/user/domain"
)

// Profile is what an authenticated user sees about their own account.
type Profile struct {
	User           *userdomain.User
	UsernameLabel  string
	EmailConfirmed bool
	// NeedsConfirmation is set for psup users who have not confirmed their email yet;
	// the client shows a call to action to resend the confirmation email.
	NeedsConfirmation bool
	Record            profiledomain.Record
}

// Me returns the profile of userID as seen by that user.
func (s *Service) Me(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	p := &Profile{User: u, UsernameLabel: UsernameLabel(u, u), EmailConfirmed: true}
	if !u.IsPsup() {
		return p, nil
	}
	confirmed, err := s.isConfirmed(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	p.EmailConfirmed = confirmed
	p.NeedsConfirmation = !confirmed
	if p.Record.PsupID, _, err = s.profile.Get(ctx, u.ID, profiledomain.FieldPsupID); err != nil {
		return nil, fmt.Errorf("get identifier: %w", err)
	}
	if p.Record.Session, _, err = s.profile.Get(ctx, u.ID, profiledomain.FieldPsupSession); err != nil {
		return nil, fmt.Errorf("get identifier session: %w", err)
	}
	return p, nil
}
