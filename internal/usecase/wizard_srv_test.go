package usecase

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"atlas-booking/internal/data/cache"
	"atlas-booking/internal/data/entity"
	"atlas-booking/internal/data/repository"
	"atlas-booking/internal/dto/request"
	"atlas-booking/internal/gateway/payment"
	"atlas-booking/internal/pipeline"
	"atlas-booking/internal/wizard"
	"atlas-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type env struct {
	svc        *Service
	bookings   *fakeBookings
	payments   *fakePayments
	gateway    *fakeGateway
	mail       *fakeMailer
	drafts     *gatedDrafts
	experience *entity.Experience
	user       uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()

	user := &entity.User{Base: entity.Base{ID: uuid.New()}, FullName: "Amina Idrissi", IsActive: true}
	experience := &entity.Experience{
		Base:      entity.Base{ID: uuid.New()},
		Type:      entity.ExperienceTour,
		Title:     "Merzouga Desert Camp",
		Location:  "Merzouga",
		UnitPrice: 100,
		IsActive:  true,
	}

	e := &env{
		bookings:   &fakeBookings{byID: map[uuid.UUID]*entity.Booking{}},
		payments:   &fakePayments{byIntent: map[string]*entity.Payment{}},
		gateway:    &fakeGateway{intents: map[string]*payment.Intent{}, statusOf: payment.IntentSucceeded},
		mail:       &fakeMailer{},
		drafts:     &gatedDrafts{DraftStore: cache.NewMemoryDraftStore()},
		experience: experience,
		user:       user.ID,
	}

	repo := &repository.Repository{
		User:       &fakeUsers{users: map[uuid.UUID]*entity.User{user.ID: user}},
		Experience: &fakeExperiences{items: map[uuid.UUID]*entity.Experience{experience.ID: experience}},
		Booking:    e.bookings,
		Payment:    e.payments,
	}

	config := &utils.Config{
		JWT:    utils.JWTConfig{Secret: "test-secret", ResumeMinutes: 10},
		Stripe: utils.StripeConfig{Currency: "usd"},
		Mail:   utils.MailConfig{FromName: "Atlas Travel"},
		Wizard: utils.WizardConfig{
			SignInURL:            "https://atlas.test/signin",
			SubmitLockSeconds:    30,
			PendingExpiryMinutes: 30,
		},
	}

	e.svc = NewService(repo, config, Deps{
		Payments: e.gateway,
		Mailer:   e.mail,
		Drafts:   e.drafts,
	}, zap.NewNop())
	return e
}

// gatedDrafts parks the next Get until the returned release channel closes,
// so a test can hold a request between loading and storing a draft.
type gatedDrafts struct {
	cache.DraftStore
	mu      sync.Mutex
	parked  chan struct{}
	release chan struct{}
}

func (g *gatedDrafts) parkNextGet() (parked, release chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.parked = make(chan struct{})
	g.release = make(chan struct{})
	return g.parked, g.release
}

func (g *gatedDrafts) Get(ctx context.Context, id string) (*wizard.Draft, error) {
	g.mu.Lock()
	parked, release := g.parked, g.release
	g.parked, g.release = nil, nil
	g.mu.Unlock()

	if parked != nil {
		close(parked)
		<-release
	}
	return g.DraftStore.Get(ctx, id)
}

type wizardResult struct {
	d   *wizard.Draft
	err error
}

func (e *env) signedIn() context.Context {
	return utils.SetUserContext(context.Background(), e.user, string(entity.RoleTraveler))
}

func dayFromToday(n int) string {
	return time.Now().AddDate(0, 0, n).Format(time.DateOnly)
}

// toSummary drives a fresh draft to the summary step: 3 days, 1 adult, 1 child.
func (e *env) toSummary(t *testing.T, ctx context.Context) *wizard.Draft {
	t.Helper()
	w := e.svc.Wizard

	d, err := w.Start(ctx)
	require.NoError(t, err)

	_, err = w.SelectExperience(ctx, d.ID, &request.SelectExperienceRequest{ExperienceID: e.experience.ID.String()})
	require.NoError(t, err)
	_, err = w.Next(ctx, d.ID)
	require.NoError(t, err)

	_, err = w.SelectDate(ctx, d.ID, &request.SelectDateRequest{Date: dayFromToday(10)})
	require.NoError(t, err)
	_, err = w.SelectDate(ctx, d.ID, &request.SelectDateRequest{Date: dayFromToday(12)})
	require.NoError(t, err)
	_, err = w.Next(ctx, d.ID)
	require.NoError(t, err)

	_, err = w.UpdateTravelers(ctx, d.ID, &request.TravelerRequest{Action: request.TravelerAddChild})
	require.NoError(t, err)
	_, err = w.UpdateContact(ctx, d.ID, &request.ContactRequest{
		FirstName: "Amina",
		LastName:  "Idrissi",
		Email:     "amina@example.com",
		Phone:     "+212600000000",
	})
	require.NoError(t, err)

	d, err = w.Next(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, wizard.StepSummary, d.Step)
	return d
}

func TestWizard_AnonymousCheckoutResumesAfterSignIn(t *testing.T) {
	e := newEnv(t)
	w := e.svc.Wizard
	anon := context.Background()

	d := e.toSummary(t, anon)
	assert.Equal(t, 3, d.Dates.DurationDays)
	assert.InDelta(t, 450.0, d.TotalPrice, 0.001)

	d, err := w.Submit(anon, d.ID)
	var authErr *pipeline.AuthRequiredError
	require.ErrorAs(t, err, &authErr)
	require.NotNil(t, d)
	assert.True(t, d.AwaitingSignIn)
	assert.Equal(t, wizard.StepSummary, d.Step)
	assert.Equal(t, 0, e.bookings.created)

	redirect, err := url.Parse(authErr.RedirectURL)
	require.NoError(t, err)
	token := redirect.Query().Get("resume_token")
	require.NotEmpty(t, token)

	ctx := e.signedIn()
	d, err = w.Resume(ctx, &request.ResumeRequest{ResumeToken: token})
	require.NoError(t, err)
	assert.Equal(t, wizard.StepPayment, d.Step)
	assert.Equal(t, e.user.String(), d.UserID)
	assert.NotEmpty(t, d.BookingReference)
	assert.Equal(t, "pi_1_secret", d.PaymentClientSecret)

	d, err = w.Pay(ctx, d.ID, &request.PaymentResultRequest{Error: &request.PaymentError{
		Type:        "card_error",
		Code:        "card_declined",
		DeclineCode: "insufficient_funds",
		Message:     "Your card has insufficient funds.",
	}})
	require.ErrorIs(t, err, pipeline.ErrPaymentDeclined)
	assert.Equal(t, wizard.StepPayment, d.Step)
	require.NotNil(t, d.Notice)
	assert.Equal(t, pipeline.NoticePaymentDeclined, d.Notice.Code)

	d, err = w.Pay(ctx, d.ID, &request.PaymentResultRequest{PaymentIntentID: "pi_1"})
	require.NoError(t, err)
	assert.Equal(t, wizard.StepConfirmation, d.Step)
	assert.True(t, d.PaymentVerified)

	assert.Equal(t, 1, e.bookings.created)
	assert.Equal(t, 1, e.gateway.creates)

	e.svc.Drain()
	assert.Equal(t, 1, e.mail.count())
}

func TestWizard_ProcessingPaymentIsNotConfirmed(t *testing.T) {
	e := newEnv(t)
	e.gateway.statusOf = payment.IntentProcessing
	ctx := e.signedIn()

	d := e.toSummary(t, ctx)
	d, err := e.svc.Wizard.Submit(ctx, d.ID)
	require.NoError(t, err)

	d, err = e.svc.Wizard.Pay(ctx, d.ID, &request.PaymentResultRequest{PaymentIntentID: d.PaymentIntentID})
	require.ErrorIs(t, err, pipeline.ErrVerificationMismatch)
	assert.Equal(t, wizard.StepPayment, d.Step)
	assert.False(t, d.PaymentVerified)

	stored, err := e.svc.Wizard.Get(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Notice)
	assert.Equal(t, pipeline.NoticeVerificationMismatch, stored.Notice.Code)
}

func TestWizard_StalePriceIsRejectedByBackend(t *testing.T) {
	e := newEnv(t)
	ctx := e.signedIn()

	d := e.toSummary(t, ctx)
	e.experience.UnitPrice = 120

	d, err := e.svc.Wizard.Submit(ctx, d.ID)
	require.ErrorIs(t, err, pipeline.ErrValidation)
	assert.Equal(t, wizard.StepSummary, d.Step)
	assert.Equal(t, 0, e.bookings.created)
}

func TestWizard_DraftOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := e.signedIn()

	d, err := e.svc.Wizard.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, e.user.String(), d.UserID)

	other := utils.SetUserContext(context.Background(), uuid.New(), string(entity.RoleTraveler))
	_, err = e.svc.Wizard.Get(other, d.ID)
	assert.ErrorIs(t, err, ErrDraftForbidden)

	_, err = e.svc.Wizard.Get(context.Background(), d.ID)
	assert.ErrorIs(t, err, pipeline.ErrAuthRequired)

	_, err = e.svc.Wizard.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestWizard_InputChecks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	w := e.svc.Wizard

	d, err := w.Start(ctx)
	require.NoError(t, err)

	_, err = w.SelectExperience(ctx, d.ID, &request.SelectExperienceRequest{ExperienceID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrExperienceUnavailable)

	_, err = w.SelectExperience(ctx, d.ID, &request.SelectExperienceRequest{ExperienceID: "nope"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "ExperienceID")

	got, err := w.Next(ctx, d.ID)
	assert.ErrorIs(t, err, wizard.ErrExperienceRequired)
	assert.Equal(t, wizard.StepExperience, got.Step)

	_, err = w.SelectExperience(ctx, d.ID, &request.SelectExperienceRequest{ExperienceID: e.experience.ID.String()})
	require.NoError(t, err)
	_, err = w.Next(ctx, d.ID)
	require.NoError(t, err)

	_, err = w.SelectDate(ctx, d.ID, &request.SelectDateRequest{Date: dayFromToday(-1)})
	assert.ErrorIs(t, err, ErrDateInPast)
}

func TestWizard_DiscardRemovesDraft(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	d, err := e.svc.Wizard.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, e.svc.Wizard.Discard(ctx, d.ID))

	_, err = e.svc.Wizard.Get(ctx, d.ID)
	assert.True(t, errors.Is(err, ErrDraftNotFound))
}

func TestBookingService_ExpirePending(t *testing.T) {
	e := newEnv(t)
	ctx := e.signedIn()

	d := e.toSummary(t, ctx)
	d, err := e.svc.Wizard.Submit(ctx, d.ID)
	require.NoError(t, err)

	n, err := e.svc.Booking.ExpirePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "fresh bookings are kept")

	for _, b := range e.bookings.byID {
		b.CreatedAt = time.Now().Add(-time.Hour)
	}
	n, err = e.svc.Booking.ExpirePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	id, err := uuid.Parse(d.BookingID)
	require.NoError(t, err)
	b, err := e.bookings.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusExpired, b.Status)
}

func TestWizard_SubmitRejectedWhileEditInProgress(t *testing.T) {
	e := newEnv(t)
	ctx := e.signedIn()
	w := e.svc.Wizard
	id := e.toSummary(t, ctx).ID

	parked, release := e.drafts.parkNextGet()
	back := make(chan wizardResult, 1)
	go func() {
		d, err := w.Back(ctx, id)
		back <- wizardResult{d, err}
	}()
	<-parked

	d, err := w.Submit(ctx, id)
	require.ErrorIs(t, err, pipeline.ErrSubmissionInFlight)
	require.NotNil(t, d)
	assert.Equal(t, wizard.StepSummary, d.Step)
	assert.Equal(t, 0, e.bookings.created)

	close(release)
	res := <-back
	require.NoError(t, res.err)
	assert.Equal(t, wizard.StepTravelers, res.d.Step)

	_, err = w.Next(ctx, id)
	require.NoError(t, err)
	d, err = w.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepPayment, d.Step)
	assert.NotEmpty(t, d.BookingReference)
	assert.Equal(t, 1, e.bookings.created)
}

func TestWizard_EditWaitsForRunningSubmission(t *testing.T) {
	e := newEnv(t)
	ctx := e.signedIn()
	w := e.svc.Wizard
	id := e.toSummary(t, ctx).ID

	parked, release := e.drafts.parkNextGet()
	submit := make(chan wizardResult, 1)
	go func() {
		d, err := w.Submit(ctx, id)
		submit <- wizardResult{d, err}
	}()
	<-parked

	back := make(chan wizardResult, 1)
	go func() {
		d, err := w.Back(ctx, id)
		back <- wizardResult{d, err}
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)

	sub := <-submit
	require.NoError(t, sub.err)
	require.Equal(t, wizard.StepPayment, sub.d.Step)

	res := <-back
	require.NoError(t, res.err)
	assert.Equal(t, wizard.StepSummary, res.d.Step)
	assert.Equal(t, sub.d.BookingID, res.d.BookingID)
	assert.Equal(t, sub.d.BookingReference, res.d.BookingReference)

	stored, err := w.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.Locked())

	_, err = w.Back(ctx, id)
	require.NoError(t, err)
	_, err = w.UpdateTravelers(ctx, id, &request.TravelerRequest{Action: request.TravelerAddAdult})
	assert.ErrorIs(t, err, wizard.ErrDraftLocked)
	assert.Equal(t, 1, e.bookings.created)
}

func TestWizard_ExpiredBookingCanBeResubmitted(t *testing.T) {
	e := newEnv(t)
	ctx := e.signedIn()
	w := e.svc.Wizard

	d := e.toSummary(t, ctx)
	d, err := w.Submit(ctx, d.ID)
	require.NoError(t, err)
	first := d.BookingID

	for _, b := range e.bookings.byID {
		b.CreatedAt = time.Now().Add(-time.Hour)
	}
	n, err := e.svc.Booking.ExpirePending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	d, err = w.Submit(ctx, d.ID)
	require.ErrorIs(t, err, pipeline.ErrBookingLapsed)
	assert.Equal(t, wizard.StepSummary, d.Step)
	assert.Empty(t, d.BookingID)
	assert.Empty(t, d.PaymentClientSecret)
	require.NotNil(t, d.Notice)
	assert.Equal(t, pipeline.NoticeBookingLapsed, d.Notice.Code)

	d, err = w.Submit(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepPayment, d.Step)
	assert.NotEqual(t, first, d.BookingID)
	assert.Equal(t, "pi_2_secret", d.PaymentClientSecret)
	assert.Equal(t, 2, e.bookings.created)

	d, err = w.Pay(ctx, d.ID, &request.PaymentResultRequest{PaymentIntentID: d.PaymentIntentID})
	require.NoError(t, err)
	assert.Equal(t, wizard.StepConfirmation, d.Step)
	e.svc.Drain()
}

func TestWizard_UnknownTravelerAction(t *testing.T) {
	e := newEnv(t)
	ctx := e.signedIn()
	w := e.svc.Wizard

	d := e.toSummary(t, ctx)
	_, err := w.Back(ctx, d.ID)
	require.NoError(t, err)

	got, err := w.UpdateTravelers(ctx, d.ID, &request.TravelerRequest{Action: "add_pet"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Nil(t, got)

	d, err = w.UpdateTravelers(ctx, d.ID, &request.TravelerRequest{Action: request.TravelerRemoveChild})
	require.NoError(t, err)
	assert.Equal(t, 0, d.Travelers.Children)
}
