package pipeline

import (
	"context"
	"time"

	"atlas-booking/internal/wizard"
)

// Authenticator tells the pipeline who is submitting and where to send
// anonymous users to sign in.
type Authenticator interface {
	CurrentUser(ctx context.Context) (userID string, ok bool)
	SignInURL(ctx context.Context, draftID string) (string, error)
}

type BookingRef struct {
	ID        string
	Reference string
}

type VerificationStatus string

const (
	VerificationConfirmed VerificationStatus = "confirmed"
	VerificationPending   VerificationStatus = "pending"
	VerificationFailed    VerificationStatus = "failed"
)

type BookingBackend interface {
	// CreateBooking returns an error wrapping ErrValidation for a bad payload.
	CreateBooking(ctx context.Context, userID string, snap wizard.Snapshot) (BookingRef, error)
	VerifyPayment(ctx context.Context, paymentIntentID string) (VerificationStatus, error)
	// BookingOpen is false once the booking expired or was cancelled.
	BookingOpen(ctx context.Context, bookingID string) (bool, error)
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

type PaymentBackend interface {
	CreatePaymentIntent(ctx context.Context, amount float64, bookingID string) (PaymentIntent, error)
}

// PaymentCollector hands the client secret to the payment UI and yields the
// confirmed intent id, or a *DeclineError.
type PaymentCollector interface {
	Collect(ctx context.Context, clientSecret string) (paymentIntentID string, err error)
}

type Notifier interface {
	SendBookingConfirmation(ctx context.Context, bookingID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Locker guards a draft key while a request loads, changes and stores it.
// Acquire returns ErrSubmissionInFlight when the key is held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
