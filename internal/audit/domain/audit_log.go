package domain

import "time"

// AuditLog represents an audit event.
type AuditLog struct {
	ID       string
	UserID   string
	Action   string
	Resource string
	IP       string
	// Metadata is a free-form JSON document, empty when the event carries none.
	Metadata  string
	CreatedAt time.Time
}
