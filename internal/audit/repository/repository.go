package repository

import (
	"context"

	"psup-auth/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListByUser returns the newest entries of userID first.
	ListByUser(ctx context.Context, userID string, limit uint64) ([]*domain.AuditLog, error)
}
