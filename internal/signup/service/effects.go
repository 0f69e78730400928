package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"psup-auth/internal/event"
	"psup-auth/internal/notification"
	userdomain "psup-auth/internal/user/domain"
)

// Effect is a side effect of signup, executed by Dispatcher after the principal is persisted.
type Effect interface {
	effect()
}

// EventEffect publishes an event.
type EventEffect struct {
	Event event.Event
}

// LoginEffect starts a session for the new user, which emits user_loggedin.
type LoginEffect struct {
	User      *userdomain.User
	IPAddress string
}

// ConfirmationEmailEffect sends the confirmation email.
type ConfirmationEmailEffect struct {
	User *userdomain.User
}

func (EventEffect) effect()             {}
func (LoginEffect) effect()             {}
func (ConfirmationEmailEffect) effect() {}

// EventSink receives events.
type EventSink interface {
	Emit(ctx context.Context, e event.Event) error
}

// DispatchReport describes what dispatching signup effects produced.
type DispatchReport struct {
	// Login is the session started by the LoginEffect, nil when none ran.
	Login *LoginResult
	// NotificationDegraded is set when the confirmation email could not be sent.
	NotificationDegraded bool
	// NotificationErr holds the delivery failure when NotificationDegraded is set.
	NotificationErr error
}

// Dispatcher executes signup effects in order.
// Event and email failures are logged and reported, never returned; a login failure is returned.
type Dispatcher struct {
	events   EventSink
	sessions *SessionStarter
	notifier Notifier
	log      *zap.Logger
}

// NewDispatcher returns a Dispatcher. events may be nil.
func NewDispatcher(events EventSink, sessions *SessionStarter, notifier Notifier, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{events: events, sessions: sessions, notifier: notifier, log: log}
}

// Dispatch runs effects in the given order.
func (d *Dispatcher) Dispatch(ctx context.Context, effects []Effect) (*DispatchReport, error) {
	report := &DispatchReport{}
	for _, eff := range effects {
		switch e := eff.(type) {
		case EventEffect:
			if d.events == nil {
				continue
			}
			if err := d.events.Emit(ctx, e.Event); err != nil {
				d.log.Warn("signup event not delivered", zap.String("event", e.Event.Name), zap.Error(err))
			}
		case LoginEffect:
			res, err := d.sessions.Start(ctx, e.User, e.IPAddress)
			if err != nil {
				return report, fmt.Errorf("auto-login: %w", err)
			}
			report.Login = res
		case ConfirmationEmailEffect:
			if err := d.notifier.Resend(ctx, e.User); err != nil {
				var se *notification.SendError
				if !errors.As(err, &se) {
					d.log.Error("confirmation email failed", zap.String("user_id", e.User.ID), zap.Error(err))
				} else {
					d.log.Warn("confirmation email not delivered", zap.String("user_id", e.User.ID), zap.Error(err))
				}
				report.NotificationDegraded = true
				report.NotificationErr = err
			}
		default:
			return report, fmt.Errorf("unknown effect %T", eff)
		}
	}
	return report, nil
}
