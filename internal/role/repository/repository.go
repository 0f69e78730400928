package repository

import (
	"context"

	"psup-auth/internal/role/domain"
)

// Repository defines persistence for roles and role assignments.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	GetByShortname(ctx context.Context, shortname string) (*domain.Role, error)
	// Create inserts the role, or returns the existing one with the same shortname.
	Create(ctx context.Context, r *domain.Role) (*domain.Role, error)
	// Assign is idempotent: assigning an existing assignment is a no-op.
	Assign(ctx context.Context, a *domain.Assignment) error
	ListAssigned(ctx context.Context, userID, contextID string) ([]*domain.Role, error)
}
