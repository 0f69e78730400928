// Package identifier validates Parcoursup identifiers submitted at signup.
package identifier

import (
	"context"
	"errors"
	"fmt"

	"psup-auth/internal/settings"
	userdomain "psup-auth/internal/user/domain"
)

// FieldPsupID is the form field validation errors are reported on.
const FieldPsupID = "psupid"

// Validation errors. Both are reported wrapped in a *FieldError.
var (
	ErrDuplicateIdentifier = errors.New("a user with this Parcoursup identifier already exists for the current session")
	ErrPatternMismatch     = errors.New("invalid Parcoursup identifier")
)

// FieldError attaches a validation error to a form field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// Finder looks up the principal holding an identifier in a session.
type Finder interface {
	FindUserIDByPsupID(ctx context.Context, auth, psupID, session string) (string, error)
}

// Validator checks candidate identifiers. It never modifies state.
type Validator struct {
	finder Finder
}

// NewValidator returns a Validator that checks uniqueness through finder.
func NewValidator(finder Finder) *Validator {
	return &Validator{finder: finder}
}

// Validate checks candidate as submitted, without normalization. In order:
// no psup principal holds it in s.CurrentSession (ErrDuplicateIdentifier), it matches
// s.IdentifierPattern when one is set, and it is a safe username (ErrPatternMismatch).
// Lookup failures and an invalid pattern are returned as plain errors.
func (v *Validator) Validate(ctx context.Context, s settings.Settings, candidate string) error {
	existing, err := v.finder.FindUserIDByPsupID(ctx, userdomain.AuthPsup, candidate, s.CurrentSession)
	if err != nil {
		return fmt.Errorf("lookup identifier: %w", err)
	}
	if existing != "" {
		return &FieldError{Field: FieldPsupID, Err: ErrDuplicateIdentifier}
	}
	ok, err := IsValidIdentifier(s.IdentifierPattern, candidate)
	if err != nil {
		return err
	}
	if !ok {
		return &FieldError{Field: FieldPsupID, Err: ErrPatternMismatch}
	}
	return nil
}

// IsValidIdentifier reports whether value matches pattern (skipped when pattern is empty)
// and survives username sanitization unchanged.
func IsValidIdentifier(pattern, value string) (bool, error) {
	if pattern != "" {
		re, err := CompilePattern(pattern)
		if err != nil {
			return false, err
		}
		if !re.MatchString(value) {
			return false, nil
		}
	}
	return IsSafeUsername(value), nil
}
