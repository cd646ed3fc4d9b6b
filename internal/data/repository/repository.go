package repository

import (
	"errors"

	"atlas-booking/pkg/database"

	"go.uber.org/zap"
)

// ErrNotFound is returned by writes that matched no row.
// Lookups return (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

type Repository struct {
	User       UserRepository
	Session    SessionRepository
	Experience ExperienceRepository
	Booking    BookingRepository
	Payment    PaymentRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:       NewUserRepository(db, log),
		Session:    NewSessionRepository(db, log),
		Experience: NewExperienceRepository(db, log),
		Booking:    NewBookingRepository(db, log),
		Payment:    NewPaymentRepository(db, log),
	}
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}
