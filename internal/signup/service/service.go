// Package service implements Parcoursup self-registration: signup, email confirmation, login
// and the confirmation reminder shown to unconfirmed users.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psup-auth/internal/event"
	"psup-auth/internal/identifier"
	"psup-auth/internal/preference"
	profiledomain "psup-auth/internal/profilefield/domain"
	roledomain "psup-auth/internal/role/domain"
	"psup-auth/internal/security"
	"psup-auth/internal/settings"
	userdomain "psup-auth/internal/user/domain"
)

// Placeholders stored when the signup form leaves the name fields empty.
const (
	PlaceholderFirstName = "Firstname"
	PlaceholderLastName  = "Lastname"
)

// Form fields other than the identifier that signup reports errors on.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Sentinel errors; the HTTP layer maps them to status codes.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrMissingPassword    = errors.New("password is required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotPsupUser        = errors.New("account is not managed by Parcoursup signup")
	ErrAlreadyConfirmed   = errors.New("email address already confirmed")
	ErrUsernameTaken      = errors.New("this username already exists, choose another one")
)

// UserRepo is the minimal user repository needed by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// PreferenceRepo is the minimal preference repository needed by the service.
type PreferenceRepo interface {
	Get(ctx context.Context, userID, name string) (string, bool, error)
	Set(ctx context.Context, userID, name, value string) error
	Unset(ctx context.Context, userID, name string) error
}

// ProfileRepo stores identifier records.
type ProfileRepo interface {
	Get(ctx context.Context, userID string, field profiledomain.Field) (string, bool, error)
	Set(ctx context.Context, userID string, field profiledomain.Field, value string) error
}

// RoleRepo is the minimal role repository needed by the service.
type RoleRepo interface {
	GetByID(ctx context.Context, id int64) (*roledomain.Role, error)
	Assign(ctx context.Context, a *roledomain.Assignment) error
}

// SettingsLoader returns the current plugin settings.
type SettingsLoader interface {
	Load(ctx context.Context, defaults settings.Settings) (settings.Settings, error)
}

// IdentifierValidator checks a candidate identifier against settings.
type IdentifierValidator interface {
	Validate(ctx context.Context, s settings.Settings, candidate string) error
}

// Notifier sends the confirmation email for a user.
type Notifier interface {
	Resend(ctx context.Context, u *userdomain.User) error
}

// SignupRequest is the submitted signup form.
type SignupRequest struct {
	PsupID    string
	Password  string
	Email     string
	FirstName string
	LastName  string
	// WantsURL is where to send the user after confirmation. Optional.
	WantsURL  string
	IPAddress string
}

// SignupResult is the created principal and the side effects the caller must dispatch, in order.
type SignupResult struct {
	User    *userdomain.User
	Effects []Effect
}

// Service implements signup, confirmation and login for psup principals.
type Service struct {
	users     UserRepo
	prefs     PreferenceRepo
	profile   ProfileRepo
	roles     RoleRepo
	settings  SettingsLoader
	validator IdentifierValidator
	hasher    *security.Hasher
	sessions  *SessionStarter
	notifier  Notifier
	log       *zap.Logger
	now       func() time.Time
}

// Deps groups the collaborators of Service.
type Deps struct {
	Users     UserRepo
	Prefs     PreferenceRepo
	Profile   ProfileRepo
	Roles     RoleRepo
	Settings  SettingsLoader
	Validator IdentifierValidator
	Hasher    *security.Hasher
	Sessions  *SessionStarter
	Notifier  Notifier
	Log       *zap.Logger
}

// NewService returns a Service with the given dependencies.
func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:     d.Users,
		prefs:     d.Prefs,
		profile:   d.Profile,
		roles:     d.Roles,
		settings:  d.Settings,
		validator: d.Validator,
		hasher:    d.Hasher,
		sessions:  d.Sessions,
		notifier:  d.Notifier,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Settings returns the persisted plugin settings over install defaults.
func (s *Service) Settings(ctx context.Context) (settings.Settings, error) {
	return s.settings.Load(ctx, settings.Defaults(s.now()))
}

// Signup validates req, persists the principal in the unconfirmed state and returns the effects
// to dispatch: user_created event, auto-login, confirmation email.
// Validation failures are returned as *identifier.FieldError.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	cfg, err := s.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := s.validator.Validate(ctx, cfg, req.PsupID); err != nil {
		return nil, err
	}
	existing, err := s.users.GetByUsername(ctx, req.PsupID)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, &identifier.FieldError{Field: identifier.FieldPsupID, Err: ErrUsernameTaken}
	}
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, &identifier.FieldError{Field: FieldEmail, Err: ErrInvalidEmail}
	}
	if req.Password == "" {
		return nil, &identifier.FieldError{Field: FieldPassword, Err: ErrMissingPassword}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	secret, err := security.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		firstName = PlaceholderFirstName
	}
	lastName := strings.TrimSpace(req.LastName)
	if lastName == "" {
		lastName = PlaceholderLastName
	}
	now := s.now()
	u := &userdomain.User{
		ID:           uuid.New().String(),
		Username:     req.PsupID,
		Email:        email,
		Auth:         userdomain.AuthPsup,
		PasswordHash: hash,
		Secret:       secret,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.profile.Set(ctx, u.ID, profiledomain.FieldPsupID, req.PsupID); err != nil {
		return nil, fmt.Errorf("write identifier: %w", err)
	}
	if err := s.profile.Set(ctx, u.ID, profiledomain.FieldPsupSession, cfg.CurrentSession); err != nil {
		return nil, fmt.Errorf("write identifier session: %w", err)
	}
	if req.WantsURL != "" {
		if err := s.prefs.Set(ctx, u.ID, preference.WantsURL, req.WantsURL); err != nil {
			return nil, fmt.Errorf("store wantsurl: %w", err)
		}
	}
	if err := s.prefs.Set(ctx, u.ID, preference.EmailConfirmed, preference.Unconfirmed); err != nil {
		return nil, fmt.Errorf("store confirmation flag: %w", err)
	}
	if err := s.assignDefaultRole(ctx, cfg.DefaultRoleID, u.ID); err != nil {
		return nil, err
	}

	s.log.Info("psup user signed up",
		zap.String("user_id", u.ID),
		zap.String("session", cfg.CurrentSession),
	)
	return &SignupResult{
		User: u,
		Effects: []Effect{
			EventEffect{Event: event.NewUserCreated(u.ID)},
			LoginEffect{User: u, IPAddress: req.IPAddress},
			ConfirmationEmailEffect{User: u},
		},
	}, nil
}

// assignDefaultRole assigns roleID at system scope. A zero id is a no-op; a role id that no
// longer exists is logged and skipped.
func (s *Service) assignDefaultRole(ctx context.Context, roleID int64, userID string) error {
	if roleID == 0 {
		return nil
	}
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("get default role: %w", err)
	}
	if role == nil {
		s.log.Warn("default role does not exist, skipping assignment", zap.Int64("role_id", roleID))
		return nil
	}
	err = s.roles.Assign(ctx, &roledomain.Assignment{
		RoleID:    role.ID,
		UserID:    userID,
		ContextID: roledomain.SystemContext,
		CreatedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("assign default role: %w", err)
	}
	return nil
}
