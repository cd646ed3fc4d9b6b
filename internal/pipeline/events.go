package pipeline

import "time"

// Subjects published while a draft moves through the pipeline.
const (
	SubjectBookingCreated       = "booking.created"
	SubjectPaymentIntentCreated = "payment.intent.created"
	SubjectPaymentFailed        = "payment.failed"
	SubjectBookingConfirmed     = "booking.confirmed"
	SubjectVerificationMismatch = "booking.verification_mismatch"

	// published by the booking service outside the wizard flow
	SubjectBookingCancelled = "booking.cancelled"
	SubjectBookingExpired   = "booking.expired"
)

type BookingEvent struct {
	DraftID          string    `json:"draft_id"`
	BookingID        string    `json:"booking_id"`
	BookingReference string    `json:"booking_reference"`
	UserID           string    `json:"user_id"`
	Amount           float64   `json:"amount"`
	PaymentIntentID  string    `json:"payment_intent_id,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}
