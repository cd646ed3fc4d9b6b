package usecase

import (
	"atlas-booking/internal/data/cache"
	"atlas-booking/internal/data/repository"
	"atlas-booking/internal/gateway/mailer"
	"atlas-booking/internal/gateway/payment"
	"atlas-booking/internal/pipeline"
	"atlas-booking/pkg/utils"

	"go.uber.org/zap"
)

// Deps are the outside systems the services talk to. Payments may be nil
// when Stripe is not configured; Notifier defaults to sending in process.
type Deps struct {
	Payments payment.Gateway
	Mailer   mailer.Mailer
	Events   pipeline.EventPublisher
	Drafts   cache.DraftStore
	Locker   pipeline.Locker
	Notifier pipeline.Notifier
}

type Service struct {
	Auth         AuthService
	Experience   ExperienceService
	Booking      BookingService
	Payment      PaymentService
	Notification NotificationService
	Wizard       WizardService

	pipeline *pipeline.Pipeline
}

func NewService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *Service {
	bookingSrv := NewBookingService(repo, deps.Payments, deps.Events, config, log)
	paymentSrv := NewPaymentService(repo, deps.Payments, log)
	notificationSrv := NewNotificationService(repo, deps.Mailer, config, log)

	notifier := deps.Notifier
	if notifier == nil {
		notifier = notificationSrv
	}

	pl := pipeline.New(pipeline.Deps{
		Auth:     NewSessionAuthenticator(config, log),
		Bookings: bookingSrv,
		Payments: paymentSrv,
		Notifier: notifier,
		Events:   deps.Events,
		Locker:   deps.Locker,
	}, config.Wizard.SubmitLockTTL(), log)

	return &Service{
		Auth:         NewAuthService(repo, log),
		Experience:   NewExperienceService(repo, log),
		Booking:      bookingSrv,
		Payment:      paymentSrv,
		Notification: notificationSrv,
		Wizard:       NewWizardService(repo, deps.Drafts, pl, config, log),
		pipeline:     pl,
	}
}

// Drain waits for in-flight confirmation dispatches. Call on shutdown.
func (s *Service) Drain() {
	s.pipeline.Drain()
}
