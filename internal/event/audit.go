package event

import (
	"context"

	"psup-auth/internal/audit"
)

// NewAuditEmitter records events in the audit log with action = event name and resource "user".
func NewAuditEmitter(l audit.AuditLogger) Emitter {
	if l == nil {
		return nil
	}
	return EmitterFunc(func(ctx context.Context, e Event) error {
		l.LogEvent(ctx, e.UserID, e.Name, "user", e.Metadata())
		return nil
	})
}
