package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"atlas-booking/internal/data/entity"
	"atlas-booking/internal/data/repository"
	"atlas-booking/internal/gateway/payment"
	"atlas-booking/internal/pipeline"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	pipeline.PaymentBackend
}

type paymentService struct {
	repo    *repository.Repository
	gateway payment.Gateway
	log     *zap.Logger
}

func NewPaymentService(repo *repository.Repository, gateway payment.Gateway, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:    repo,
		gateway: gateway,
		log:     log.With(zap.String("service", "payment")),
	}
}

// CreatePaymentIntent opens a provider intent for a pending booking and
// records it. The amount must match the stored booking total.
func (s *paymentService) CreatePaymentIntent(ctx context.Context, amount float64, bookingID string) (pipeline.PaymentIntent, error) {
	if s.gateway == nil {
		return pipeline.PaymentIntent{}, ErrPaymentsUnavailable
	}

	id, err := uuid.Parse(bookingID)
	if err != nil {
		return pipeline.PaymentIntent{}, fmt.Errorf("%w: booking id %q", pipeline.ErrValidation, bookingID)
	}
	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return pipeline.PaymentIntent{}, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return pipeline.PaymentIntent{}, fmt.Errorf("%w: booking %s not found", pipeline.ErrValidation, bookingID)
	}
	if booking.Status != entity.BookingStatusPending {
		return pipeline.PaymentIntent{}, fmt.Errorf("%w: booking %s is %s", pipeline.ErrValidation, booking.Reference, booking.Status)
	}
	if math.Abs(booking.TotalPrice-amount) >= 0.005 {
		return pipeline.PaymentIntent{}, fmt.Errorf("%w: amount %.2f does not match booking total %.2f",
			pipeline.ErrValidation, amount, booking.TotalPrice)
	}

	intent, err := s.gateway.CreateIntent(ctx, booking.TotalPrice, bookingID)
	if err != nil {
		return pipeline.PaymentIntent{}, err
	}

	now := time.Now()
	record := &entity.Payment{
		Record: entity.Record{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID: booking.ID,
		Provider:  "stripe",
		IntentID:  intent.ID,
		Amount:    booking.TotalPrice,
		Currency:  s.gateway.Currency(),
		Status:    entity.PaymentStatusPending,
	}
	if err := s.repo.Payment.Create(ctx, record); err != nil {
		return pipeline.PaymentIntent{}, fmt.Errorf("record payment: %w", err)
	}

	s.log.Info("Payment intent ready",
		zap.String("booking_id", bookingID),
		zap.String("intent_id", intent.ID),
	)
	return pipeline.PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}
