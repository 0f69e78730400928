// Package event carries user lifecycle events (account created, logged in) to the audit log,
// Kafka and OpenTelemetry logs.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Event names.
const (
	UserCreated  = "user_created"
	UserLoggedIn = "user_loggedin"
)

// Event is one lifecycle event about a user.
type Event struct {
	Name      string            `json:"eventname"`
	UserID    string            `json:"userid"`
	ContextID string            `json:"contextid"`
	Other     map[string]string `json:"other,omitempty"`
	CreatedAt time.Time         `json:"timecreated"`
}

// NewUserCreated returns the user_created event for userID.
func NewUserCreated(userID string) Event {
	return Event{Name: UserCreated, UserID: userID, ContextID: "user:" + userID, CreatedAt: time.Now().UTC()}
}

// NewUserLoggedIn returns the user_loggedin event; other carries the username.
func NewUserLoggedIn(userID, username string) Event {
	return Event{
		Name:      UserLoggedIn,
		UserID:    userID,
		ContextID: "system",
		Other:     map[string]string{"username": username},
		CreatedAt: time.Now().UTC(),
	}
}

// Metadata returns Other encoded as JSON, or "" when empty.
func (e Event) Metadata() string {
	if len(e.Other) == 0 {
		return ""
	}
	b, err := json.Marshal(e.Other)
	if err != nil {
		return ""
	}
	return string(b)
}

// Emitter delivers events to one destination.
type Emitter interface {
	Emit(ctx context.Context, e Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, e Event) error

func (f EmitterFunc) Emit(ctx context.Context, e Event) error { return f(ctx, e) }

// Sink fans one event out to every configured emitter. A failing emitter does not stop the others.
type Sink struct {
	emitters []Emitter
	log      *zap.Logger
}

// NewSink returns a Sink over emitters; nil emitters are skipped.
func NewSink(log *zap.Logger, emitters ...Emitter) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sink{log: log}
	for _, em := range emitters {
		if em != nil {
			s.emitters = append(s.emitters, em)
		}
	}
	return s
}

// Emit sends e to every emitter and returns the joined failures.
func (s *Sink) Emit(ctx context.Context, e Event) error {
	if s == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var errs []error
	for _, em := range s.emitters {
		if err := em.Emit(ctx, e); err != nil {
			s.log.Warn("event: emit failed",
				zap.String("event", e.Name),
				zap.String("user_id", e.UserID),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
