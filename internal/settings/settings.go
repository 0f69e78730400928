// Package settings holds the plugin configuration that signup, validation and rollover read.
package settings

import (
	"strconv"
	"time"
)

// Persisted setting names.
const (
	NameIdentifierPattern = "identifierpattern"
	NameCurrentSession    = "currentsession"
	NameDefaultRoleID     = "defaultroleid"
)

// DefaultIdentifierPattern accepts 6 to 8 digit identifiers.
const DefaultIdentifierPattern = "/^[0-9]{6,8}$/"

// Settings is passed explicitly to every operation that depends on plugin configuration.
type Settings struct {
	// IdentifierPattern is the regular expression identifiers must match. Empty disables the check.
	IdentifierPattern string
	// CurrentSession labels the active enrollment session, e.g. "2025".
	CurrentSession string
	// DefaultRoleID is assigned at system scope on signup when non-zero.
	DefaultRoleID int64
}

// Defaults returns install-time settings: the default pattern and the current year as session.
func Defaults(now time.Time) Settings {
	return Settings{
		IdentifierPattern: DefaultIdentifierPattern,
		CurrentSession:    strconv.Itoa(now.Year()),
	}
}

// Values renders s as persisted name/value pairs.
func (s Settings) Values() map[string]string {
	return map[string]string{
		NameIdentifierPattern: s.IdentifierPattern,
		NameCurrentSession:    s.CurrentSession,
		NameDefaultRoleID:     strconv.FormatInt(s.DefaultRoleID, 10),
	}
}

// Apply overlays persisted name/value pairs onto s. Unknown names and unparsable role ids are ignored.
func (s Settings) Apply(values map[string]string) Settings {
	if v, ok := values[NameIdentifierPattern]; ok {
		s.IdentifierPattern = v
	}
	if v, ok := values[NameCurrentSession]; ok && v != "" {
		s.CurrentSession = v
	}
	if v, ok := values[NameDefaultRoleID]; ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id >= 0 {
			s.DefaultRoleID = id
		}
	}
	return s
}
