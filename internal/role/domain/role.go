package domain

import "time"

// SystemContext is the context id of system-wide role assignments.
const SystemContext = "system"

// Role is an assignable role. Shortname is unique.
type Role struct {
	ID        int64
	Shortname string
	Name      string
}

// Assignment links a user to a role within a context.
type Assignment struct {
	RoleID    int64
	UserID    string
	ContextID string
	CreatedAt time.Time
}
