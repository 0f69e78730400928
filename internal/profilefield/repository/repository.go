package repository

import (
	"context"

	"psup-auth/internal/profilefield/domain"
)

// Repository defines persistence for identifier profile fields and their per-user data.
type Repository interface {
	// EnsureFields creates the identifier field definitions when missing. Idempotent.
	EnsureFields(ctx context.Context) error
	// Get returns the value of field for userID, and whether it is set.
	Get(ctx context.Context, userID string, field domain.Field) (string, bool, error)
	// Set creates or overwrites the value of field for userID.
	Set(ctx context.Context, userID string, field domain.Field, value string) error
	// FindUserIDByPsupID returns the id of a user with the given auth whose psupid and psupsession
	// records equal psupID and session, or "" when there is none.
	FindUserIDByPsupID(ctx context.Context, auth, psupID, session string) (string, error)
}
