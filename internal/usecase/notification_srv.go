package usecase

import (
	"context"
	"fmt"
	"html"
	"strings"

	"atlas-booking/internal/data/entity"
	"atlas-booking/internal/data/repository"
	"atlas-booking/internal/gateway/mailer"
	"atlas-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService interface {
	SendBookingConfirmation(ctx context.Context, bookingID string) error
}

type notificationService struct {
	repo    *repository.Repository
	mailer  mailer.Mailer
	appName string
	log     *zap.Logger
}

func NewNotificationService(repo *repository.Repository, m mailer.Mailer, config *utils.Config, log *zap.Logger) NotificationService {
	return &notificationService{
		repo:    repo,
		mailer:  m,
		appName: config.Mail.FromName,
		log:     log.With(zap.String("service", "notification")),
	}
}

// SendBookingConfirmation emails the booking contact. Only confirmed
// bookings are announced.
func (s *notificationService) SendBookingConfirmation(ctx context.Context, bookingID string) error {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return fmt.Errorf("%w: booking id", ErrInvalidInput)
	}

	b, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find booking: %w", err)
	}
	if b == nil {
		return fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if b.Status != entity.BookingStatusConfirmed {
		return fmt.Errorf("booking %s is %s, not confirmed", b.Reference, b.Status)
	}

	msgID, err := s.mailer.Send(ctx, confirmationMessage(s.appName, b))
	if err != nil {
		return fmt.Errorf("send confirmation for %s: %w", b.Reference, err)
	}

	s.log.Info("Booking confirmation sent",
		zap.String("booking_id", bookingID),
		zap.String("message_id", msgID),
	)
	return nil
}

func confirmationMessage(appName string, b *entity.Booking) mailer.Message {
	subject := fmt.Sprintf("Your booking %s is confirmed", b.Reference)

	lines := []string{
		fmt.Sprintf("Hello %s,", b.ContactName),
		"",
		fmt.Sprintf("Thank you for booking %s.", b.ExperienceTitle),
		fmt.Sprintf("Reference: %s", b.Reference),
		fmt.Sprintf("Dates: %s to %s (%d days)", b.StartDate.Format("Jan 2, 2006"), b.EndDate.Format("Jan 2, 2006"), b.DurationDays),
		fmt.Sprintf("Travelers: %d adults, %d children", b.Adults, b.Children),
		fmt.Sprintf("Total paid: %.2f %s", b.TotalPrice, strings.ToUpper(b.Currency)),
		"",
		appName,
	}
	text := strings.Join(lines, "\n")

	var sb strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		sb.WriteString("<p>" + html.EscapeString(line) + "</p>")
	}

	return mailer.Message{
		ToEmail: b.ContactEmail,
		ToName:  b.ContactName,
		Subject: subject,
		Text:    text,
		HTML:    sb.String(),
	}
}
