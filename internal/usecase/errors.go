package usecase

import (
	"errors"

	"atlas-booking/pkg/validation"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountDisabled       = errors.New("account is deactivated")
	ErrDraftNotFound         = errors.New("booking draft not found or expired")
	ErrDraftForbidden        = errors.New("booking draft belongs to another user")
	ErrExperienceUnavailable = errors.New("experience is not available")
	ErrDateInPast            = errors.New("date is in the past")
	ErrBookingNotCancellable = errors.New("only pending bookings can be cancelled")
	ErrPaymentsUnavailable   = errors.New("payments are not configured")
)

// ValidationError carries per-field messages from validation.Struct.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + validation.Format(e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func validate(v interface{}) error {
	if errs := validation.Struct(v); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
