package entity

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Payment tracks one provider payment intent for a booking.
type Payment struct {
	Record
	BookingID     uuid.UUID     `db:"booking_id"`
	Provider      string        `db:"provider"`
	IntentID      string        `db:"intent_id"`
	Amount        float64       `db:"amount"`
	Currency      string        `db:"currency"`
	Status        PaymentStatus `db:"status"`
	FailureReason *string       `db:"failure_reason"`
}
