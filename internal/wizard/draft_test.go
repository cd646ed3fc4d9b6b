package wizard

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)

func sahara() ExperienceRef {
	return ExperienceRef{Type: ExperienceTour, ID: "exp-1", Title: "Sahara Desert Trek", UnitPrice: 100}
}

func validContact() Contact {
	return Contact{FirstName: "Amina", LastName: "Idrissi", Email: "amina@example.com", Phone: "+212600000000"}
}

// readyForSummary drives a draft to the travelers step with valid input.
func readyForSummary(t *testing.T) *Draft {
	t.Helper()
	d := New("draft-1", now)
	require.NoError(t, d.SelectExperience(sahara()))
	require.NoError(t, d.Next())
	require.NoError(t, d.SelectDate(jan(10)))
	require.NoError(t, d.SelectDate(jan(12)))
	require.NoError(t, d.Next())
	require.NoError(t, d.IncrementAdults())
	require.NoError(t, d.IncrementChildren())
	require.NoError(t, d.SetContact(validContact()))
	return d
}

func TestNew(t *testing.T) {
	d := New("abc", now)

	assert.Equal(t, StepExperience, d.Step)
	assert.Equal(t, 1, d.Travelers.Adults)
	assert.Equal(t, 0, d.Travelers.Children)
	assert.Equal(t, 1, d.Dates.DurationDays)
	assert.Nil(t, d.Experience)
	assert.False(t, d.Priced)
}

func TestNext_RequiresExperience(t *testing.T) {
	d := New("abc", now)

	err := d.Next()
	assert.ErrorIs(t, err, ErrExperienceRequired)
	assert.Equal(t, StepExperience, d.Step)
}

func TestNext_RequiresCompleteRange(t *testing.T) {
	d := New("abc", now)
	require.NoError(t, d.SelectExperience(sahara()))
	require.NoError(t, d.Next())
	require.NoError(t, d.SelectDate(jan(10)))

	assert.ErrorIs(t, d.Next(), ErrDatesIncomplete)
	assert.Equal(t, StepDates, d.Step)
}

func TestNext_RejectsInvalidContact(t *testing.T) {
	d := readyForSummary(t)
	require.NoError(t, d.SetContact(Contact{FirstName: "A", LastName: "Idrissi", Email: "not-an-email", Phone: "123"}))

	err := d.Next()
	require.ErrorIs(t, err, ErrInvalidContact)

	var contactErr *ContactError
	require.True(t, errors.As(err, &contactErr))
	assert.Contains(t, contactErr.Fields, "FirstName")
	assert.Contains(t, contactErr.Fields, "Email")
	assert.Contains(t, contactErr.Fields, "Phone")
	assert.NotContains(t, contactErr.Fields, "LastName")
	assert.Equal(t, StepTravelers, d.Step)
}

func TestNext_EnteringSummaryComputesPrice(t *testing.T) {
	d := readyForSummary(t)

	require.NoError(t, d.Next())
	assert.Equal(t, StepSummary, d.Step)
	assert.True(t, d.Priced)
	// 100 x 3 days x (2 adults + 0.5 x 1 child)
	assert.InDelta(t, 750.0, d.TotalPrice, 0.001)
}

func TestNext_SummaryAndPaymentBelongToPipeline(t *testing.T) {
	d := readyForSummary(t)
	require.NoError(t, d.Next())

	assert.ErrorIs(t, d.Next(), ErrPipelineOnly)
	assert.Equal(t, StepSummary, d.Step)
}

func TestBack_KeepsLaterData(t *testing.T) {
	d := readyForSummary(t)
	require.NoError(t, d.Next())

	require.NoError(t, d.Back())
	require.NoError(t, d.Back())
	assert.Equal(t, StepDates, d.Step)
	assert.True(t, d.Dates.Complete())
	assert.Equal(t, 2, d.Travelers.Adults)
	assert.Equal(t, "Amina", d.Travelers.FirstName)
	assert.True(t, d.Priced)

	require.NoError(t, d.Back())
	assert.ErrorIs(t, d.Back(), ErrNoPreviousStep)
	assert.NotNil(t, d.Experience)
}

func TestSelectDate_InvalidatesPrice(t *testing.T) {
	d := readyForSummary(t)
	require.NoError(t, d.Next())
	require.NoError(t, d.Back())
	require.NoError(t, d.Back())

	require.NoError(t, d.SelectDate(jan(20)))
	assert.False(t, d.Priced)
	assert.Zero(t, d.TotalPrice)

	_, err := d.Snapshot()
	assert.Error(t, err)
}

func TestEditsRequireTheirStep(t *testing.T) {
	d := New("abc", now)

	assert.ErrorIs(t, d.SelectDate(jan(1)), ErrWrongStep)
	assert.ErrorIs(t, d.IncrementAdults(), ErrWrongStep)
	assert.ErrorIs(t, d.SetContact(validContact()), ErrWrongStep)
}

func TestTravelerCounterFloors(t *testing.T) {
	d := readyForSummary(t)
	rng := rand.New(rand.NewPCG(7, 11))

	ops := []func() error{d.IncrementAdults, d.DecrementAdults, d.IncrementChildren, d.DecrementChildren}
	for i := 0; i < 5000; i++ {
		// bias toward decrements
		op := ops[rng.IntN(len(ops))]
		if rng.IntN(3) > 0 {
			op = ops[1+2*rng.IntN(2)]
		}
		require.NoError(t, op())
		require.GreaterOrEqual(t, d.Travelers.Adults, 1)
		require.GreaterOrEqual(t, d.Travelers.Children, 0)
	}

	for i := 0; i < 50; i++ {
		require.NoError(t, d.DecrementAdults())
		require.NoError(t, d.DecrementChildren())
	}
	assert.Equal(t, 1, d.Travelers.Adults)
	assert.Equal(t, 0, d.Travelers.Children)
}

func TestSnapshot(t *testing.T) {
	d := readyForSummary(t)
	_, err := d.Snapshot()
	assert.ErrorIs(t, err, ErrPriceStale)

	require.NoError(t, d.Next())
	snap, err := d.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, "draft-1", snap.DraftID)
	assert.Equal(t, "exp-1", snap.ExperienceID)
	assert.Equal(t, jan(10), snap.StartDate)
	assert.Equal(t, jan(12), snap.EndDate)
	assert.Equal(t, 3, snap.DurationDays)
	assert.Equal(t, 2, snap.Adults)
	assert.Equal(t, 1, snap.Children)
	assert.InDelta(t, 750.0, snap.TotalPrice, 0.001)
}

func TestConfirmationRequiresBookingAndVerifiedIntent(t *testing.T) {
	d := readyForSummary(t)
	require.NoError(t, d.Next())

	assert.ErrorIs(t, d.Confirm("pi_1"), ErrWrongStep)
	assert.ErrorIs(t, d.EnterPayment(), ErrPaymentNotReady)
	assert.ErrorIs(t, d.AttachPaymentIntent("pi_1", "secret"), ErrPaymentNotReady)

	require.NoError(t, d.AttachBooking("B1", "ATL-1"))
	require.NoError(t, d.AttachPaymentIntent("pi_1", "S1"))
	require.NoError(t, d.EnterPayment())
	assert.Equal(t, StepPayment, d.Step)

	assert.ErrorIs(t, d.Next(), ErrPipelineOnly)
	assert.ErrorIs(t, d.Confirm("pi_other"), ErrIntentMismatch)
	assert.Equal(t, StepPayment, d.Step)

	require.NoError(t, d.Confirm("pi_1"))
	assert.Equal(t, StepConfirmation, d.Step)
	assert.True(t, d.PaymentVerified)
	assert.ErrorIs(t, d.Back(), ErrCompleted)
	assert.ErrorIs(t, d.Next(), ErrCompleted)
}

func TestLockedAfterBookingCreated(t *testing.T) {
	d := readyForSummary(t)
	require.NoError(t, d.Next())
	require.NoError(t, d.AttachBooking("B1", "ATL-1"))

	require.NoError(t, d.Back())
	assert.ErrorIs(t, d.IncrementAdults(), ErrDraftLocked)
	assert.ErrorIs(t, d.AttachBooking("B2", "ATL-2"), ErrDraftLocked)

	require.NoError(t, d.Back())
	assert.ErrorIs(t, d.SelectDate(jan(1)), ErrDraftLocked)
	assert.True(t, d.Priced)
}

func TestDetachBooking(t *testing.T) {
	d := readyForSummary(t)
	require.NoError(t, d.Next())
	require.NoError(t, d.AttachBooking("B1", "ATL-1"))
	require.NoError(t, d.AttachPaymentIntent("pi_1", "pi_1_secret"))
	require.NoError(t, d.EnterPayment())

	require.NoError(t, d.DetachBooking())
	assert.Equal(t, StepSummary, d.Step)
	assert.False(t, d.Locked())
	assert.Empty(t, d.BookingReference)
	assert.Empty(t, d.PaymentIntentID)
	assert.Empty(t, d.PaymentClientSecret)
	assert.True(t, d.Priced, "price survives for the resubmission")

	require.NoError(t, d.AttachBooking("B2", "ATL-2"))
	assert.Equal(t, "B2", d.BookingID)

	require.NoError(t, d.Back())
	assert.ErrorIs(t, d.DetachBooking(), ErrWrongStep)
}
