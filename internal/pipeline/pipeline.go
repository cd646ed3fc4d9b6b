package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"atlas-booking/internal/wizard"

	"go.uber.org/zap"
)

const (
	defaultLockTTL       = time.Minute
	defaultNotifyTimeout = 30 * time.Second
)

type Deps struct {
	Auth     Authenticator
	Bookings BookingBackend
	Payments PaymentBackend
	Notifier Notifier
	Events   EventPublisher // optional
	Locker   Locker         // optional, in-process when nil
}

// Pipeline turns a priced draft into a confirmed booking:
// create booking, create payment intent, collect payment, verify payment,
// then a detached confirmation notification.
type Pipeline struct {
	auth     Authenticator
	bookings BookingBackend
	payments PaymentBackend
	notifier Notifier
	events   EventPublisher
	locker   Locker

	lockTTL       time.Duration
	notifyTimeout time.Duration
	now           func() time.Time

	wg  sync.WaitGroup
	log *zap.Logger
}

func New(deps Deps, lockTTL time.Duration, log *zap.Logger) *Pipeline {
	if deps.Locker == nil {
		deps.Locker = NewLocalLocker()
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	return &Pipeline{
		auth:          deps.Auth,
		bookings:      deps.Bookings,
		payments:      deps.Payments,
		notifier:      deps.Notifier,
		events:        deps.Events,
		locker:        deps.Locker,
		lockTTL:       lockTTL,
		notifyTimeout: defaultNotifyTimeout,
		now:           time.Now,
		log:           log.With(zap.String("component", "pipeline")),
	}
}

// Lock takes the per-draft lock. Submit, Resume and Pay expect the caller
// to hold it from loading the draft until the draft is stored again.
// It fails with ErrSubmissionInFlight while another request holds it.
func (p *Pipeline) Lock(ctx context.Context, draftID string) (release func(), err error) {
	return p.locker.Acquire(ctx, lockKey(draftID), p.lockTTL)
}

// Submit runs the summary -> payment transition. Booking and payment intent
// already attached to the draft are reused, never created twice, unless the
// booking lapsed. The caller persists the draft whatever the outcome.
func (p *Pipeline) Submit(ctx context.Context, d *wizard.Draft) error {
	return p.submit(ctx, d)
}

// Resume continues a submission interrupted by the sign-in redirect.
func (p *Pipeline) Resume(ctx context.Context, d *wizard.Draft) error {
	if d.Step == wizard.StepPayment && !d.AwaitingSignIn {
		return nil
	}
	return p.Submit(ctx, d)
}

func (p *Pipeline) submit(ctx context.Context, d *wizard.Draft) error {
	log := p.log.With(zap.String("draft_id", d.ID))

	if d.BookingID != "" && (d.Step == wizard.StepSummary || d.Step == wizard.StepPayment) {
		if err := p.checkBooking(ctx, d); err != nil {
			return err
		}
	}

	if d.Step == wizard.StepPayment && d.PaymentClientSecret != "" {
		return nil
	}
	if d.Step != wizard.StepSummary {
		return fmt.Errorf("%w: submit requires %s, draft is at %s", wizard.ErrWrongStep, wizard.StepSummary, d.Step)
	}

	snap, err := d.Snapshot()
	if err != nil {
		d.SetNotice(NoticeValidation, "Some booking details are missing. Please review the previous steps.")
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	userID, ok := p.auth.CurrentUser(ctx)
	if !ok {
		return p.requireSignIn(ctx, d)
	}
	if d.UserID == "" {
		d.UserID = userID
	}

	if d.BookingID == "" {
		ref, err := p.bookings.CreateBooking(ctx, userID, snap)
		if err != nil {
			if errors.Is(err, ErrAuthRequired) {
				return p.requireSignIn(ctx, d)
			}
			p.noticeFor(d, err)
			log.Warn("Create booking failed", zap.Error(err))
			return fmt.Errorf("create booking: %w", err)
		}
		if err := d.AttachBooking(ref.ID, ref.Reference); err != nil {
			return err
		}
		log.Info("Booking created",
			zap.String("booking_id", ref.ID),
			zap.String("reference", ref.Reference),
		)
		p.publish(ctx, SubjectBookingCreated, p.event(d, ""))
	} else {
		log.Debug("Reusing booking", zap.String("booking_id", d.BookingID))
	}

	if d.PaymentClientSecret == "" {
		intent, err := p.payments.CreatePaymentIntent(ctx, snap.TotalPrice, d.BookingID)
		if err != nil {
			p.noticeFor(d, err)
			log.Warn("Create payment intent failed",
				zap.Error(err),
				zap.String("booking_id", d.BookingID),
			)
			return fmt.Errorf("create payment intent: %w", err)
		}
		if err := d.AttachPaymentIntent(intent.ID, intent.ClientSecret); err != nil {
			return err
		}
		p.publish(ctx, SubjectPaymentIntentCreated, p.event(d, ""))
	} else {
		log.Debug("Reusing payment intent", zap.String("payment_intent_id", d.PaymentIntentID))
	}

	if err := d.EnterPayment(); err != nil {
		return err
	}
	d.ClearNotice()
	return nil
}

// Pay collects the payment for a draft at the payment step and verifies it.
// A decline leaves the draft at payment with booking and intent intact.
func (p *Pipeline) Pay(ctx context.Context, d *wizard.Draft, collector PaymentCollector) error {
	if d.Step != wizard.StepPayment {
		return fmt.Errorf("%w: pay requires %s, draft is at %s", wizard.ErrWrongStep, wizard.StepPayment, d.Step)
	}
	if d.BookingID == "" || d.PaymentClientSecret == "" {
		return wizard.ErrPaymentNotReady
	}

	log := p.log.With(
		zap.String("draft_id", d.ID),
		zap.String("booking_id", d.BookingID),
	)

	intentID, err := collector.Collect(ctx, d.PaymentClientSecret)
	if err != nil {
		var decline *DeclineError
		if errors.As(err, &decline) {
			msg := decline.Message
			if msg == "" {
				msg = "Your payment was declined. Please try another card."
			}
			d.SetNotice(NoticePaymentDeclined, msg)
			log.Info("Payment declined",
				zap.String("code", decline.Code),
				zap.String("decline_code", decline.DeclineCode),
			)
			p.publish(ctx, SubjectPaymentFailed, p.event(d, decline.DeclineCode))
			return err
		}
		// a cancelled intent can never be collected again
		if lerr := p.checkBooking(ctx, d); errors.Is(lerr, ErrBookingLapsed) {
			return lerr
		}
		d.SetNotice(NoticeUnavailable, "We could not reach the payment provider. Please try again.")
		return fmt.Errorf("collect payment: %w", err)
	}

	if intentID != d.PaymentIntentID {
		return p.mismatch(ctx, d, intentID, "", wizard.ErrIntentMismatch)
	}

	status, err := p.bookings.VerifyPayment(ctx, intentID)
	if err != nil {
		return p.mismatch(ctx, d, intentID, status, err)
	}
	if status != VerificationConfirmed {
		return p.mismatch(ctx, d, intentID, status, nil)
	}

	if err := d.Confirm(intentID); err != nil {
		return err
	}
	log.Info("Booking confirmed", zap.String("reference", d.BookingReference))
	p.publish(ctx, SubjectBookingConfirmed, p.event(d, ""))

	p.dispatchConfirmation(ctx, d.BookingID)
	return nil
}

// Drain waits for confirmation notifications still being dispatched.
func (p *Pipeline) Drain() {
	p.wg.Wait()
}

// checkBooking returns ErrBookingLapsed, and detaches the booking from the
// draft, once the attached booking expired or was cancelled.
func (p *Pipeline) checkBooking(ctx context.Context, d *wizard.Draft) error {
	open, err := p.bookings.BookingOpen(ctx, d.BookingID)
	if err != nil {
		d.SetNotice(NoticeUnavailable, "Something went wrong while preparing your payment. Please try again.")
		return fmt.Errorf("check booking %s: %w", d.BookingID, err)
	}
	if open {
		return nil
	}

	lapsed := d.BookingID
	p.log.Info("Booking lapsed before payment",
		zap.String("draft_id", d.ID),
		zap.String("booking_id", lapsed),
		zap.String("reference", d.BookingReference),
	)
	if err := d.DetachBooking(); err != nil {
		return err
	}
	d.SetNotice(NoticeBookingLapsed, "Your reservation expired before payment was completed. Please review your booking and submit it again.")
	return fmt.Errorf("booking %s: %w", lapsed, ErrBookingLapsed)
}

func (p *Pipeline) requireSignIn(ctx context.Context, d *wizard.Draft) error {
	redirect, err := p.auth.SignInURL(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("build sign-in redirect: %w", err)
	}
	d.AwaitingSignIn = true
	d.SetNotice(NoticeAuthRequired, "Please sign in to complete your booking.")
	p.log.Info("Submission requires sign-in", zap.String("draft_id", d.ID))
	return &AuthRequiredError{RedirectURL: redirect}
}

func (p *Pipeline) mismatch(ctx context.Context, d *wizard.Draft, intentID string, status VerificationStatus, cause error) error {
	verr := &VerificationError{
		BookingReference: d.BookingReference,
		PaymentIntentID:  intentID,
		Status:           status,
		Err:              cause,
	}

	d.SetNotice(NoticeVerificationMismatch, fmt.Sprintf(
		"We could not confirm your payment for booking %s. Please contact support with this reference before paying again.",
		d.BookingReference,
	))
	p.log.Error("Payment verification mismatch",
		zap.Error(verr),
		zap.String("draft_id", d.ID),
		zap.String("booking_id", d.BookingID),
	)
	p.publish(ctx, SubjectVerificationMismatch, p.event(d, string(status)))
	return verr
}

func (p *Pipeline) noticeFor(d *wizard.Draft, err error) {
	if errors.Is(err, ErrValidation) {
		d.SetNotice(NoticeValidation, "We could not create your booking. Please try again or contact support.")
		return
	}
	d.SetNotice(NoticeUnavailable, "Something went wrong while preparing your payment. Please try again.")
}

func (p *Pipeline) dispatchConfirmation(ctx context.Context, bookingID string) {
	ctx = context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, p.notifyTimeout)
		defer cancel()

		if err := p.notifier.SendBookingConfirmation(ctx, bookingID); err != nil {
			p.log.Warn("Booking confirmation not sent",
				zap.Error(fmt.Errorf("%w: %w", ErrNotificationFailure, err)),
				zap.String("booking_id", bookingID),
			)
		}
	}()
}

func (p *Pipeline) publish(ctx context.Context, subject string, event BookingEvent) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(ctx, subject, event); err != nil {
		p.log.Warn("Failed to publish event",
			zap.Error(err),
			zap.String("subject", subject),
		)
	}
}

func (p *Pipeline) event(d *wizard.Draft, reason string) BookingEvent {
	return BookingEvent{
		DraftID:          d.ID,
		BookingID:        d.BookingID,
		BookingReference: d.BookingReference,
		UserID:           d.UserID,
		Amount:           d.TotalPrice,
		PaymentIntentID:  d.PaymentIntentID,
		Reason:           reason,
		OccurredAt:       p.now(),
	}
}

func lockKey(draftID string) string {
	return "wizard:draft:" + draftID
}
