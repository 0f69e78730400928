package repository

import "context"

// Repository defines persistence for user preferences.
type Repository interface {
	// Get returns the value and whether the preference exists.
	Get(ctx context.Context, userID, name string) (string, bool, error)
	// Set creates or overwrites the preference.
	Set(ctx context.Context, userID, name, value string) error
	// Unset removes the preference. Removing a missing preference is not an error.
	Unset(ctx context.Context, userID, name string) error
}
