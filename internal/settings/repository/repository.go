package repository

import (
	"context"

	"psup-auth/internal/settings"
)

// Repository defines persistence for plugin settings.
type Repository interface {
	// Load returns defaults overlaid with every persisted setting.
	Load(ctx context.Context, defaults settings.Settings) (settings.Settings, error)
	// Set creates or overwrites one setting.
	Set(ctx context.Context, name, value string) error
	// Seed writes values that are not persisted yet and leaves existing ones untouched.
	Seed(ctx context.Context, values map[string]string) error
}
