// Package rbac checks system-level role assignments of the caller.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"psup-auth/internal/role/domain"
	"psup-auth/internal/server/middleware"
)

// RoleManager is the shortname of the role allowed to run administrative operations.
const RoleManager = "manager"

var (
	ErrUnauthenticated = errors.New("user context required")
	ErrForbidden       = errors.New("required role not assigned")
)

// AssignedRoleLister lists the roles a user holds in a context.
type AssignedRoleLister interface {
	ListAssigned(ctx context.Context, userID, contextID string) ([]*domain.Role, error)
}

// RequireSystemRole ensures the caller is authenticated and holds one of shortnames at system scope.
// Returns the caller's user id.
func RequireSystemRole(ctx context.Context, lister AssignedRoleLister, shortnames ...string) (string, error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	roles, err := lister.ListAssigned(ctx, userID, domain.SystemContext)
	if err != nil {
		return "", fmt.Errorf("list assigned roles: %w", err)
	}
	for _, r := range roles {
		for _, want := range shortnames {
			if r.Shortname == want {
				return userID, nil
			}
		}
	}
	return "", ErrForbidden
}
