package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base is embedded by soft-deleted rows: users and experiences.
type Base struct {
	ID        uuid.UUID  `db:"id"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

func (b Base) Deleted() bool {
	return b.DeletedAt != nil
}

// Record is embedded by rows that are never deleted. Bookings and payments
// end in a terminal status instead.
type Record struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
