package repository

import (
	"context"
	"errors"
	"fmt"

	"atlas-booking/internal/data/entity"
	"atlas-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByIntentID(ctx context.Context, intentID string) (*entity.Payment, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error)
	UpdateStatus(ctx context.Context, intentID string, status entity.PaymentStatus, reason *string) error
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, booking_id, provider, intent_id, amount, currency, status, failure_reason, created_at, updated_at`

func scanPayment(row scanner) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.Provider,
		&p.IntentID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.FailureReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts the payment row. A row for the same intent is left untouched.
func (r *paymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, provider, intent_id, amount, currency,
		                      status, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (intent_id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.BookingID,
		p.Provider,
		p.IntentID,
		p.Amount,
		p.Currency,
		p.Status,
		p.FailureReason,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("booking_id", p.BookingID.String()),
			zap.String("intent_id", p.IntentID),
		)
		return fmt.Errorf("create payment for booking %s: %w", p.BookingID, err)
	}

	return nil
}

func (r *paymentRepository) FindByIntentID(ctx context.Context, intentID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE intent_id = $1`

	p, err := scanPayment(r.db.QueryRow(ctx, query, intentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by intent",
			zap.Error(err),
			zap.String("intent_id", intentID),
		)
		return nil, fmt.Errorf("find payment %s: %w", intentID, err)
	}

	return p, nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find payments by booking",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payments for booking %s: %w", bookingID, err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			r.log.Error("Failed to scan payment row", zap.Error(err))
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, intentID string, status entity.PaymentStatus, reason *string) error {
	query := `
		UPDATE payments
		SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE intent_id = $1
	`

	result, err := r.db.Exec(ctx, query, intentID, status, reason)
	if err != nil {
		r.log.Error("Failed to update payment status",
			zap.Error(err),
			zap.String("intent_id", intentID),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update payment %s: %w", intentID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update payment %s: %w", intentID, ErrNotFound)
	}

	return nil
}
