package domain

import "time"

// Session represents a login session of a user.
type Session struct {
	ID         string
	UserID     string
	ExpiresAt  time.Time
	RevokedAt  *time.Time // nil when not revoked
	LastSeenAt *time.Time
	IPAddress  string
	// WantsURL is where the user is sent after a successful confirmation within this session.
	WantsURL  string
	CreatedAt time.Time
}

// Active reports whether the session is neither revoked nor expired at now.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
