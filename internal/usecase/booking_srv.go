package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"atlas-booking/internal/data/entity"
	"atlas-booking/internal/data/repository"
	"atlas-booking/internal/dto/request"
	"atlas-booking/internal/dto/response"
	"atlas-booking/internal/gateway/payment"
	"atlas-booking/internal/pipeline"
	"atlas-booking/internal/wizard"
	"atlas-booking/pkg/utils"
	"atlas-booking/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	pipeline.BookingBackend

	GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetUserBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingResponse, error)

	// Admin
	GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID string) error

	// ExpirePending closes pending bookings whose payment never completed.
	ExpirePending(ctx context.Context) (int, error)
}

type bookingService struct {
	repo     *repository.Repository
	payments payment.Gateway
	events   pipeline.EventPublisher
	currency string
	expiry   time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	payments payment.Gateway,
	events pipeline.EventPublisher,
	config *utils.Config,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:     repo,
		payments: payments,
		events:   events,
		currency: strings.ToLower(config.Stripe.Currency),
		expiry:   config.Wizard.PendingExpiry(),
		now:      time.Now,
		log:      log.With(zap.String("service", "booking")),
	}
}

// CreateBooking stores the submitted draft as a pending booking. The draft
// is re-checked against the catalog; a draft id maps to at most one open
// booking at a time.
func (s *bookingService) CreateBooking(ctx context.Context, userID string, snap wizard.Snapshot) (pipeline.BookingRef, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return pipeline.BookingRef{}, pipeline.ErrAuthRequired
	}
	user, err := s.repo.User.FindByID(ctx, uid)
	if err != nil {
		return pipeline.BookingRef{}, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !user.IsActive {
		return pipeline.BookingRef{}, pipeline.ErrAuthRequired
	}

	existing, err := s.repo.Booking.FindByDraftID(ctx, snap.DraftID)
	if err != nil {
		return pipeline.BookingRef{}, fmt.Errorf("find booking by draft: %w", err)
	}
	if existing != nil {
		return s.reuse(existing, uid)
	}

	experience, err := s.checkSnapshot(ctx, snap)
	if err != nil {
		s.log.Warn("Rejected booking payload",
			zap.Error(err),
			zap.String("draft_id", snap.DraftID),
		)
		return pipeline.BookingRef{}, err
	}

	now := s.now()
	booking := &entity.Booking{
		Record: entity.Record{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Reference:       utils.GenerateBookingReference(now),
		DraftID:         snap.DraftID,
		UserID:          uid,
		ExperienceID:    experience.ID,
		ExperienceTitle: experience.Title,
		StartDate:       snap.StartDate,
		EndDate:         snap.EndDate,
		DurationDays:    snap.DurationDays,
		Adults:          snap.Adults,
		Children:        snap.Children,
		UnitPrice:       experience.UnitPrice,
		TotalPrice:      snap.TotalPrice,
		Currency:        s.currency,
		ContactName:     snap.Contact.FirstName + " " + snap.Contact.LastName,
		ContactEmail:    snap.Contact.Email,
		ContactPhone:    snap.Contact.Phone,
		Status:          entity.BookingStatusPending,
	}
	if snap.Contact.SpecialRequests != "" {
		requests := snap.Contact.SpecialRequests
		booking.SpecialRequests = &requests
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateDraft) {
			existing, ferr := s.repo.Booking.FindByDraftID(ctx, snap.DraftID)
			if ferr != nil || existing == nil {
				return pipeline.BookingRef{}, fmt.Errorf("reload booking for draft %s: %w", snap.DraftID, err)
			}
			return s.reuse(existing, uid)
		}
		return pipeline.BookingRef{}, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.Float64("total_price", booking.TotalPrice),
	)
	return pipeline.BookingRef{ID: booking.ID.String(), Reference: booking.Reference}, nil
}

func (s *bookingService) reuse(b *entity.Booking, userID uuid.UUID) (pipeline.BookingRef, error) {
	if b.UserID != userID {
		return pipeline.BookingRef{}, fmt.Errorf("%w: draft already booked by another account", pipeline.ErrValidation)
	}
	if b.Status != entity.BookingStatusPending && b.Status != entity.BookingStatusConfirmed {
		return pipeline.BookingRef{}, fmt.Errorf("%w: booking %s is %s", pipeline.ErrValidation, b.Reference, b.Status)
	}
	return pipeline.BookingRef{ID: b.ID.String(), Reference: b.Reference}, nil
}

func (s *bookingService) checkSnapshot(ctx context.Context, snap wizard.Snapshot) (*entity.Experience, error) {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", pipeline.ErrValidation, fmt.Sprintf(format, args...))
	}

	experienceID, err := uuid.Parse(snap.ExperienceID)
	if err != nil {
		return nil, invalid("experience id %q", snap.ExperienceID)
	}
	experience, err := s.repo.Experience.FindByID(ctx, experienceID)
	if err != nil {
		return nil, fmt.Errorf("find experience: %w", err)
	}
	if experience == nil || !experience.IsActive {
		return nil, invalid("experience %s is not available", snap.ExperienceID)
	}
	if string(experience.Type) != string(snap.ExperienceType) {
		return nil, invalid("experience type %s does not match %s", snap.ExperienceType, experience.Type)
	}

	if snap.Adults < 1 || snap.Children < 0 {
		return nil, invalid("travelers %d adults %d children", snap.Adults, snap.Children)
	}
	if !snap.EndDate.After(snap.StartDate) {
		return nil, invalid("end date must be after start date")
	}
	if snap.DurationDays != wizard.InclusiveDays(snap.StartDate, snap.EndDate) {
		return nil, invalid("duration %d does not match dates", snap.DurationDays)
	}
	if wizard.Day(snap.StartDate).Before(wizard.Day(s.now())) {
		return nil, invalid("start date %s is in the past", snap.StartDate.Format(time.DateOnly))
	}
	if errs := validation.Struct(snap.Contact); len(errs) > 0 {
		return nil, invalid("contact %s", validation.Format(errs))
	}

	expected := wizard.TotalPrice(experience.UnitPrice, snap.DurationDays, snap.Adults, snap.Children)
	if math.Abs(expected-snap.TotalPrice) >= 0.005 {
		return nil, invalid("total %.2f does not match current price %.2f", snap.TotalPrice, expected)
	}

	return experience, nil
}

// VerifyPayment asks the provider for the intent state and confirms the
// booking when it succeeded for the expected amount.
func (s *bookingService) VerifyPayment(ctx context.Context, paymentIntentID string) (pipeline.VerificationStatus, error) {
	if s.payments == nil {
		return pipeline.VerificationFailed, ErrPaymentsUnavailable
	}

	record, err := s.repo.Payment.FindByIntentID(ctx, paymentIntentID)
	if err != nil {
		return pipeline.VerificationFailed, fmt.Errorf("find payment: %w", err)
	}
	if record == nil {
		return pipeline.VerificationFailed, fmt.Errorf("payment intent %s: %w", paymentIntentID, ErrNotFound)
	}

	intent, err := s.payments.GetIntent(ctx, paymentIntentID)
	if err != nil {
		return pipeline.VerificationPending, err
	}

	log := s.log.With(
		zap.String("intent_id", paymentIntentID),
		zap.String("booking_id", record.BookingID.String()),
	)

	if intent.BookingID != record.BookingID.String() || intent.Amount != payment.ToMinorUnits(record.Amount) {
		log.Error("Payment intent does not match booking",
			zap.String("intent_booking_id", intent.BookingID),
			zap.Int64("intent_amount", intent.Amount),
		)
		return pipeline.VerificationFailed, nil
	}

	switch intent.Status {
	case payment.IntentSucceeded:
		if err := s.repo.Booking.Confirm(ctx, record.BookingID, paymentIntentID, s.now()); err != nil {
			log.Error("Failed to confirm paid booking", zap.Error(err))
			return pipeline.VerificationPending, fmt.Errorf("confirm booking: %w", err)
		}
		log.Info("Payment verified")
		return pipeline.VerificationConfirmed, nil

	case payment.IntentProcessing:
		return pipeline.VerificationPending, nil

	default:
		reason := "intent " + string(intent.Status)
		if err := s.repo.Payment.UpdateStatus(ctx, paymentIntentID, entity.PaymentStatusFailed, &reason); err != nil {
			log.Warn("Failed to mark payment failed", zap.Error(err))
		}
		return pipeline.VerificationFailed, nil
	}
}

// BookingOpen reports whether the booking can still be paid or already is.
func (s *bookingService) BookingOpen(ctx context.Context, bookingID string) (bool, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return false, nil
	}
	b, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("find booking: %w", err)
	}
	if b == nil {
		return false, nil
	}
	return b.Status == entity.BookingStatusPending || b.Status == entity.BookingStatusConfirmed, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	items := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, response.BookingToResponse(b, nil))
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

func (s *bookingService) GetUserBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingResponse, error) {
	b, err := s.find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	// Other users' bookings look like missing ones.
	if b.UserID != userID {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	return s.withPayments(ctx, b)
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	b, err := s.find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.withPayments(ctx, b)
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) error {
	b, err := s.find(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status != entity.BookingStatusPending {
		return fmt.Errorf("booking %s is %s: %w", b.Reference, b.Status, ErrBookingNotCancellable)
	}

	intents, err := s.repo.Booking.Cancel(ctx, b.ID)
	if errors.Is(err, repository.ErrNotFound) {
		// status changed under us
		return fmt.Errorf("booking %s: %w", b.Reference, ErrBookingNotCancellable)
	}
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	s.cancelIntents(ctx, intents)
	s.publish(ctx, pipeline.SubjectBookingCancelled, b)
	return nil
}

func (s *bookingService) ExpirePending(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.expiry)

	ids, intents, err := s.repo.Booking.ExpirePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	s.cancelIntents(ctx, intents)
	for _, id := range ids {
		s.publish(ctx, pipeline.SubjectBookingExpired, &entity.Booking{Record: entity.Record{ID: id}})
	}

	s.log.Info("Expired pending bookings",
		zap.Int("bookings", len(ids)),
		zap.Int("intents", len(intents)),
		zap.Time("cutoff", cutoff),
	)
	return len(ids), nil
}

func (s *bookingService) cancelIntents(ctx context.Context, intents []string) {
	if s.payments == nil {
		return
	}
	for _, id := range intents {
		if err := s.payments.CancelIntent(ctx, id); err != nil {
			s.log.Warn("Failed to cancel payment intent", zap.Error(err), zap.String("intent_id", id))
		}
	}
}

func (s *bookingService) publish(ctx context.Context, subject string, b *entity.Booking) {
	if s.events == nil {
		return
	}
	event := pipeline.BookingEvent{
		DraftID:          b.DraftID,
		BookingID:        b.ID.String(),
		BookingReference: b.Reference,
		Amount:           b.TotalPrice,
		OccurredAt:       s.now(),
	}
	if b.UserID != uuid.Nil {
		event.UserID = b.UserID.String()
	}
	if err := s.events.Publish(ctx, subject, event); err != nil {
		s.log.Warn("Failed to publish event", zap.Error(err), zap.String("subject", subject))
	}
}

func (s *bookingService) find(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: booking id", ErrInvalidInput)
	}

	b, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	return b, nil
}

func (s *bookingService) withPayments(ctx context.Context, b *entity.Booking) (*response.BookingResponse, error) {
	payments, err := s.repo.Payment.FindByBookingID(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("find payments: %w", err)
	}
	resp := response.BookingToResponse(b, payments)
	return &resp, nil
}
