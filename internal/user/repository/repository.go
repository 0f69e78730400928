package repository

import (
	"context"

	"psup-auth/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	// ListByAuth returns every user owned by the given auth method, ordered by id.
	ListByAuth(ctx context.Context, auth string) ([]*domain.User, error)
}
