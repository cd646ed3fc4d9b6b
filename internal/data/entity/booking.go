package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusExpired   BookingStatus = "expired"
)

type Booking struct {
	Record
	Reference       string        `db:"reference"`
	DraftID         string        `db:"draft_id"`
	UserID          uuid.UUID     `db:"user_id"`
	ExperienceID    uuid.UUID     `db:"experience_id"`
	ExperienceTitle string        `db:"experience_title"`
	StartDate       time.Time     `db:"start_date"`
	EndDate         time.Time     `db:"end_date"`
	DurationDays    int           `db:"duration_days"`
	Adults          int           `db:"adults"`
	Children        int           `db:"children"`
	UnitPrice       float64       `db:"unit_price"`
	TotalPrice      float64       `db:"total_price"`
	Currency        string        `db:"currency"`
	ContactName     string        `db:"contact_name"`
	ContactEmail    string        `db:"contact_email"`
	ContactPhone    string        `db:"contact_phone"`
	SpecialRequests *string       `db:"special_requests"`
	Status          BookingStatus `db:"status"`
	ConfirmedAt     *time.Time    `db:"confirmed_at"`
}
