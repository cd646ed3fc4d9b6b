package wizard

import (
	"errors"
	"fmt"

	"atlas-booking/pkg/validation"
)

var (
	ErrWrongStep          = errors.New("action not allowed at current step")
	ErrExperienceRequired = errors.New("an experience must be selected")
	ErrDatesIncomplete    = errors.New("both start and end dates are required")
	ErrInvalidContact     = errors.New("traveler contact details are invalid")
	ErrPriceStale         = errors.New("total price has not been computed")
	ErrNoPreviousStep     = errors.New("already at the first step")
	ErrCompleted          = errors.New("booking is already confirmed")
	ErrDraftLocked        = errors.New("booking already created for this draft")
	ErrPipelineOnly       = errors.New("transition is performed by the booking pipeline")
	ErrPaymentNotReady    = errors.New("booking and payment intent are required")
	ErrIntentMismatch     = errors.New("payment intent does not belong to this draft")
)

// ContactError carries the per-field messages of a failed contact validation.
type ContactError struct {
	Fields map[string]string
}

func (e *ContactError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidContact, validation.Format(e.Fields))
}

func (e *ContactError) Unwrap() error {
	return ErrInvalidContact
}

func wrongStep(action string, want, have Step) error {
	return fmt.Errorf("%w: %s requires %s, draft is at %s", ErrWrongStep, action, want, have)
}
