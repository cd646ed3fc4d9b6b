package pipeline

import (
	"errors"
	"fmt"
)

// Error taxonomy of the booking pipeline. Every error returned by
// Submit, Resume and Pay matches one of these with errors.Is, or is an
// unclassified collaborator failure.
var (
	ErrAuthRequired         = errors.New("authentication required")
	ErrValidation           = errors.New("booking validation failed")
	ErrPaymentDeclined      = errors.New("payment declined")
	ErrVerificationMismatch = errors.New("payment verification mismatch")
	ErrNotificationFailure  = errors.New("confirmation notification failed")
	ErrSubmissionInFlight   = errors.New("a submission for this draft is already in progress")
	ErrBookingLapsed        = errors.New("booking expired before payment")
)

// Notice codes stored on the draft for the inline message.
const (
	NoticeAuthRequired         = "auth_required"
	NoticeValidation           = "validation_error"
	NoticePaymentDeclined      = "payment_declined"
	NoticeVerificationMismatch = "verification_mismatch"
	NoticeUnavailable          = "service_unavailable"
	NoticeBookingLapsed        = "booking_expired"
)

type AuthRequiredError struct {
	RedirectURL string
}

func (e *AuthRequiredError) Error() string {
	return ErrAuthRequired.Error()
}

func (e *AuthRequiredError) Unwrap() error {
	return ErrAuthRequired
}

// DeclineError is the structured failure returned by a PaymentCollector.
type DeclineError struct {
	Code        string
	DeclineCode string
	Message     string
}

func (e *DeclineError) Error() string {
	if e.DeclineCode != "" {
		return fmt.Sprintf("%s: %s (%s)", ErrPaymentDeclined, e.Message, e.DeclineCode)
	}
	return fmt.Sprintf("%s: %s", ErrPaymentDeclined, e.Message)
}

func (e *DeclineError) Unwrap() error {
	return ErrPaymentDeclined
}

// VerificationError means the client saw success but the backend did not
// confirm the payment. Money may have moved; it is never retried automatically.
type VerificationError struct {
	BookingReference string
	PaymentIntentID  string
	Status           VerificationStatus
	Err              error
}

func (e *VerificationError) Error() string {
	msg := fmt.Sprintf("%s: booking %s intent %s status %q",
		ErrVerificationMismatch, e.BookingReference, e.PaymentIntentID, e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *VerificationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrVerificationMismatch, e.Err}
	}
	return []error{ErrVerificationMismatch}
}
