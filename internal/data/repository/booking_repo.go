package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atlas-booking/internal/data/entity"
	"atlas-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrDuplicateDraft means a booking already exists for the draft id.
var ErrDuplicateDraft = errors.New("booking already exists for draft")

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	// FindByDraftID returns the pending or confirmed booking of a draft.
	FindByDraftID(ctx context.Context, draftID string) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// Status transitions. Each one updates the payment rows in the same transaction.
	Confirm(ctx context.Context, bookingID uuid.UUID, intentID string, at time.Time) error
	Cancel(ctx context.Context, bookingID uuid.UUID) ([]string, error)
	ExpirePending(ctx context.Context, createdBefore time.Time) ([]uuid.UUID, []string, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, reference, draft_id, user_id, experience_id, experience_title,
	start_date, end_date, duration_days, adults, children, unit_price, total_price, currency,
	contact_name, contact_email, contact_phone, special_requests, status, confirmed_at,
	created_at, updated_at`

func scanBooking(row scanner) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.DraftID,
		&b.UserID,
		&b.ExperienceID,
		&b.ExperienceTitle,
		&b.StartDate,
		&b.EndDate,
		&b.DurationDays,
		&b.Adults,
		&b.Children,
		&b.UnitPrice,
		&b.TotalPrice,
		&b.Currency,
		&b.ContactName,
		&b.ContactEmail,
		&b.ContactPhone,
		&b.SpecialRequests,
		&b.Status,
		&b.ConfirmedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, reference, draft_id, user_id, experience_id, experience_title,
		                      start_date, end_date, duration_days, adults, children,
		                      unit_price, total_price, currency, contact_name, contact_email,
		                      contact_phone, special_requests, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21)
	`

	_, err := r.db.Exec(ctx, query,
		b.ID,
		b.Reference,
		b.DraftID,
		b.UserID,
		b.ExperienceID,
		b.ExperienceTitle,
		b.StartDate,
		b.EndDate,
		b.DurationDays,
		b.Adults,
		b.Children,
		b.UnitPrice,
		b.TotalPrice,
		b.Currency,
		b.ContactName,
		b.ContactEmail,
		b.ContactPhone,
		b.SpecialRequests,
		b.Status,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "bookings_draft_id_key" {
			return ErrDuplicateDraft
		}
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("reference", b.Reference),
			zap.String("user_id", b.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", b.Reference, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking %s: %w", id, err)
	}

	return b, nil
}

func (r *bookingRepository) FindByDraftID(ctx context.Context, draftID string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE draft_id = $1 AND status IN ($2, $3)`

	b, err := scanBooking(r.db.QueryRow(ctx, query, draftID, entity.BookingStatusPending, entity.BookingStatusConfirmed))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by draft",
			zap.Error(err),
			zap.String("draft_id", draftID),
		)
		return nil, fmt.Errorf("find booking by draft %s: %w", draftID, err)
	}

	return b, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings for user %s: %w", userID, err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count bookings",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings for user %s: %w", userID, err)
	}

	return total, nil
}

// Confirm marks the booking confirmed and its payment completed. Confirming
// an already confirmed booking is a no-op.
func (r *bookingRepository) Confirm(ctx context.Context, bookingID uuid.UUID, intentID string, at time.Time) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE bookings
			SET status = $2, confirmed_at = COALESCE(confirmed_at, $3), updated_at = $3
			WHERE id = $1 AND status IN ($4, $2)
		`, bookingID, entity.BookingStatusConfirmed, at, entity.BookingStatusPending)
		if err != nil {
			return fmt.Errorf("confirm booking %s: %w", bookingID, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("confirm booking %s: %w", bookingID, ErrNotFound)
		}

		_, err = tx.Exec(ctx, `
			UPDATE payments
			SET status = $3, updated_at = $4
			WHERE booking_id = $1 AND intent_id = $2
		`, bookingID, intentID, entity.PaymentStatusCompleted, at)
		if err != nil {
			return fmt.Errorf("complete payment %s: %w", intentID, err)
		}
		return nil
	})
}

// Cancel marks a pending booking cancelled and returns the intent ids of the
// payments it cancelled alongside.
func (r *bookingRepository) Cancel(ctx context.Context, bookingID uuid.UUID) ([]string, error) {
	var intents []string
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE bookings SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = $3
		`, bookingID, entity.BookingStatusCancelled, entity.BookingStatusPending)
		if err != nil {
			return fmt.Errorf("cancel booking %s: %w", bookingID, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("cancel booking %s: %w", bookingID, ErrNotFound)
		}

		intents, err = cancelPendingPayments(ctx, tx, []uuid.UUID{bookingID})
		return err
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("Booking cancelled", zap.String("booking_id", bookingID.String()))
	return intents, nil
}

// ExpirePending expires pending bookings created before the cutoff.
func (r *bookingRepository) ExpirePending(ctx context.Context, createdBefore time.Time) ([]uuid.UUID, []string, error) {
	var (
		ids     []uuid.UUID
		intents []string
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE bookings SET status = $1, updated_at = NOW()
			WHERE status = $2 AND created_at < $3
			RETURNING id
		`, entity.BookingStatusExpired, entity.BookingStatusPending, createdBefore)
		if err != nil {
			return fmt.Errorf("expire bookings: %w", err)
		}
		ids, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("collect expired bookings: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		intents, err = cancelPendingPayments(ctx, tx, ids)
		return err
	})
	if err != nil {
		r.log.Error("Failed to expire pending bookings", zap.Error(err))
		return nil, nil, err
	}

	return ids, intents, nil
}

func cancelPendingPayments(ctx context.Context, tx pgx.Tx, bookingIDs []uuid.UUID) ([]string, error) {
	rows, err := tx.Query(ctx, `
		UPDATE payments SET status = $2, updated_at = NOW()
		WHERE booking_id = ANY($1) AND status = $3
		RETURNING intent_id
	`, bookingIDs, entity.PaymentStatusCancelled, entity.PaymentStatusPending)
	if err != nil {
		return nil, fmt.Errorf("cancel payments: %w", err)
	}

	intents, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect cancelled payments: %w", err)
	}
	return intents, nil
}

func (r *bookingRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
