package domain

import (
	"errors"
	"time"
)

// AuthPsup is the auth-method tag of principals that self-registered with a Parcoursup identifier.
const AuthPsup = "psup"

// User is the core principal entity.
type User struct {
	ID       string
	Username string
	Email    string
	// Auth tags the authentication method that owns this account.
	Auth         string
	PasswordHash string
	// Secret is the email confirmation secret.
	Secret    string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Auth == "" {
		return errors.New("auth is required")
	}
	return nil
}

// IsPsup reports whether the account belongs to the psup authentication method.
func (u *User) IsPsup() bool {
	return u != nil && u.Auth == AuthPsup
}
