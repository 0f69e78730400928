// Package rollover moves psup principals out of the way when a new enrollment session opens:
// every existing psup username is suffixed with "_prev" so the identifier can be registered again.
package rollover

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	profiledomain "psup-auth/internal/profilefield/domain"
	"psup-auth/internal/settings"
	userdomain "psup-auth/internal/user/domain"
)

// Marker is the session label and username suffix given to principals of past sessions.
const Marker = "prev"

const suffix = "_" + Marker

// ErrEmptySession is returned when Run is called without a session label.
var ErrEmptySession = errors.New("rollover: new session label is empty")

// UserRepo is the minimal user repository needed by the engine.
type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	Update(ctx context.Context, u *userdomain.User) error
	ListByAuth(ctx context.Context, auth string) ([]*userdomain.User, error)
}

// ProfileRepo reads and writes identifier records.
type ProfileRepo interface {
	Get(ctx context.Context, userID string, field profiledomain.Field) (string, bool, error)
	Set(ctx context.Context, userID string, field profiledomain.Field, value string) error
}

// SettingsWriter persists one plugin setting.
type SettingsWriter interface {
	Set(ctx context.Context, name, value string) error
}

// Report summarizes one run.
type Report struct {
	Session string
	// Renamed counts principals moved to the previous session.
	Renamed int
	// Repaired counts already renamed principals whose identifier record was rewritten.
	Repaired int
	// Skipped counts principals left untouched: already migrated, or registered in the new session.
	Skipped int
	// Failed lists the ids of principals that could not be migrated.
	Failed []string
}

// Engine performs the session rollover.
type Engine struct {
	users    UserRepo
	profile  ProfileRepo
	settings SettingsWriter
	log      *zap.Logger
	now      func() time.Time
}

// NewEngine returns an Engine.
func NewEngine(users UserRepo, profile ProfileRepo, settingsRepo SettingsWriter, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		users:    users,
		profile:  profile,
		settings: settingsRepo,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sets the current session to newSession and migrates every psup principal.
// Per-user failures do not stop the batch; they are listed in the report and returned joined.
// Running it twice with the same label is a no-op for principals migrated by the first run.
func (e *Engine) Run(ctx context.Context, newSession string) (*Report, error) {
	newSession = strings.TrimSpace(newSession)
	if newSession == "" {
		return nil, ErrEmptySession
	}
	if err := e.settings.Set(ctx, settings.NameCurrentSession, newSession); err != nil {
		return nil, fmt.Errorf("set current session: %w", err)
	}
	users, err := e.users.ListByAuth(ctx, userdomain.AuthPsup)
	if err != nil {
		return nil, fmt.Errorf("list psup users: %w", err)
	}

	report := &Report{Session: newSession}
	var errs []error
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		outcome, err := e.migrate(ctx, u, newSession)
		if err != nil {
			report.Failed = append(report.Failed, u.ID)
			errs = append(errs, fmt.Errorf("user %s: %w", u.ID, err))
			e.log.Error("rollover: user not migrated", zap.String("user_id", u.ID), zap.Error(err))
			continue
		}
		switch outcome {
		case outcomeRenamed:
			report.Renamed++
		case outcomeRepaired:
			report.Repaired++
		default:
			report.Skipped++
		}
	}
	e.log.Info("rollover finished",
		zap.String("session", newSession),
		zap.Int("renamed", report.Renamed),
		zap.Int("repaired", report.Repaired),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)),
	)
	return report, errors.Join(errs...)
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeRenamed
	outcomeRepaired
)

// migrate renames u unless its record already names newSession. A "_prev" username counts as
// migrated only when its session record is the marker or missing; otherwise it is an identifier
// that happens to end with the suffix.
func (e *Engine) migrate(ctx context.Context, u *userdomain.User, newSession string) (outcome, error) {
	session, hasSession, err := e.profile.Get(ctx, u.ID, profiledomain.FieldPsupSession)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("get session record: %w", err)
	}
	if hasSession && session == newSession {
		return outcomeSkipped, nil
	}
	if strings.HasSuffix(u.Username, suffix) && (!hasSession || session == Marker) {
		return e.repair(ctx, u, hasSession)
	}

	priorID := u.Username
	renamed := priorID + suffix
	taken, err := e.users.GetByUsername(ctx, renamed)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("check username %s: %w", renamed, err)
	}
	if taken != nil {
		return outcomeSkipped, fmt.Errorf("username %s already taken by user %s", renamed, taken.ID)
	}

	updated := *u
	updated.Username = renamed
	updated.UpdatedAt = e.now()
	if err := e.users.Update(ctx, &updated); err != nil {
		return outcomeSkipped, fmt.Errorf("rename: %w", err)
	}
	if err := e.writeRecord(ctx, u.ID, priorID); err != nil {
		return outcomeSkipped, err
	}
	return outcomeRenamed, nil
}

// repair rewrites the identifier record of a principal renamed by an interrupted run.
func (e *Engine) repair(ctx context.Context, u *userdomain.User, hasSession bool) (outcome, error) {
	psupID, hasID, err := e.profile.Get(ctx, u.ID, profiledomain.FieldPsupID)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("get identifier record: %w", err)
	}
	priorID := strings.TrimSuffix(u.Username, suffix)
	if hasID && hasSession && psupID == priorID {
		return outcomeSkipped, nil
	}
	if err := e.writeRecord(ctx, u.ID, priorID); err != nil {
		return outcomeSkipped, err
	}
	return outcomeRepaired, nil
}

func (e *Engine) writeRecord(ctx context.Context, userID, priorID string) error {
	if err := e.profile.Set(ctx, userID, profiledomain.FieldPsupID, priorID); err != nil {
		return fmt.Errorf("write identifier record: %w", err)
	}
	if err := e.profile.Set(ctx, userID, profiledomain.FieldPsupSession, Marker); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	return nil
}
