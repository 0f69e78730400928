package repository

import (
	"context"
	"time"

	"psup-auth/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	Revoke(ctx context.Context, id string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
	SetWantsURL(ctx context.Context, id, url string) error
}
