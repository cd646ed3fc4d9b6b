package wizard

import (
	"strings"
	"time"

	"atlas-booking/pkg/validation"
)

type ExperienceRef struct {
	Type      ExperienceType `json:"type"`
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	UnitPrice float64        `json:"unit_price"`
	ImageRef  string         `json:"image_ref,omitempty"`
}

type Contact struct {
	FirstName       string `json:"first_name" validate:"required,min=2"`
	LastName        string `json:"last_name" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,min=7"`
	SpecialRequests string `json:"special_requests" validate:"max=1000"`
}

type Travelers struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Contact
}

// Notice is the inline message shown next to the current step.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Draft is the booking being assembled by one wizard session.
type Draft struct {
	ID         string         `json:"id"`
	Step       Step           `json:"step"`
	Experience *ExperienceRef `json:"experience"`
	Dates      DateRange      `json:"date_range"`
	Travelers  Travelers      `json:"travelers"`
	TotalPrice float64        `json:"total_price"`
	Priced     bool           `json:"priced"`

	UserID              string `json:"user_id,omitempty"`
	BookingID           string `json:"booking_id,omitempty"`
	BookingReference    string `json:"booking_reference,omitempty"`
	PaymentIntentID     string `json:"payment_intent_id,omitempty"`
	PaymentClientSecret string `json:"payment_client_secret,omitempty"`
	PaymentVerified     bool   `json:"payment_verified"`
	AwaitingSignIn      bool   `json:"awaiting_sign_in"`

	Notice    *Notice   `json:"notice,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(id string, now time.Time) *Draft {
	return &Draft{
		ID:        id,
		Step:      StepExperience,
		Dates:     DateRange{DurationDays: 1},
		Travelers: Travelers{Adults: 1},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Locked reports whether a booking record exists for this draft.
// Booking inputs cannot change once it does.
func (d *Draft) Locked() bool {
	return d.BookingID != ""
}

func (d *Draft) SelectExperience(ref ExperienceRef) error {
	if err := d.editableAt(StepExperience, "select experience"); err != nil {
		return err
	}
	d.Experience = &ref
	d.invalidatePrice()
	return nil
}

func (d *Draft) SelectDate(day time.Time) error {
	if err := d.editableAt(StepDates, "select date"); err != nil {
		return err
	}
	d.Dates.Select(day)
	d.invalidatePrice()
	return nil
}

func (d *Draft) IncrementAdults() error {
	return d.adjustTravelers("add adult", func(t *Travelers) { t.Adults++ })
}

func (d *Draft) DecrementAdults() error {
	return d.adjustTravelers("remove adult", func(t *Travelers) {
		if t.Adults > 1 {
			t.Adults--
		}
	})
}

func (d *Draft) IncrementChildren() error {
	return d.adjustTravelers("add child", func(t *Travelers) { t.Children++ })
}

func (d *Draft) DecrementChildren() error {
	return d.adjustTravelers("remove child", func(t *Travelers) {
		if t.Children > 0 {
			t.Children--
		}
	})
}

func (d *Draft) adjustTravelers(action string, fn func(*Travelers)) error {
	if err := d.editableAt(StepTravelers, action); err != nil {
		return err
	}
	fn(&d.Travelers)
	d.invalidatePrice()
	return nil
}

// SetContact stores contact details as typed. Validation happens on Next.
func (d *Draft) SetContact(c Contact) error {
	if err := d.editableAt(StepTravelers, "set contact"); err != nil {
		return err
	}
	d.Travelers.Contact = Contact{
		FirstName:       strings.TrimSpace(c.FirstName),
		LastName:        strings.TrimSpace(c.LastName),
		Email:           strings.TrimSpace(c.Email),
		Phone:           strings.TrimSpace(c.Phone),
		SpecialRequests: strings.TrimSpace(c.SpecialRequests),
	}
	return nil
}

// Next advances one step if the current step's gate passes.
func (d *Draft) Next() error {
	switch d.Step {
	case StepExperience:
		if d.Experience == nil {
			return ErrExperienceRequired
		}
		d.Step = StepDates
	case StepDates:
		if !d.Dates.Complete() {
			return ErrDatesIncomplete
		}
		d.Step = StepTravelers
	case StepTravelers:
		if err := d.checkBookable(); err != nil {
			return err
		}
		d.price()
		d.Step = StepSummary
	case StepSummary, StepPayment:
		return ErrPipelineOnly
	case StepConfirmation:
		return ErrCompleted
	default:
		return wrongStep("next", StepExperience, d.Step)
	}
	d.Notice = nil
	return nil
}

// Back moves to the preceding step and keeps everything entered so far.
func (d *Draft) Back() error {
	if d.Step == StepConfirmation {
		return ErrCompleted
	}
	prev, ok := d.Step.previous()
	if !ok {
		return ErrNoPreviousStep
	}
	d.Step = prev
	d.Notice = nil
	return nil
}

// Snapshot is the read-only view submitted to the booking backend.
type Snapshot struct {
	DraftID         string
	ExperienceID    string
	ExperienceType  ExperienceType
	ExperienceTitle string
	UnitPrice       float64
	StartDate       time.Time
	EndDate         time.Time
	DurationDays    int
	Adults          int
	Children        int
	TotalPrice      float64
	Contact         Contact
}

func (d *Draft) Snapshot() (Snapshot, error) {
	if err := d.checkBookable(); err != nil {
		return Snapshot{}, err
	}
	if !d.Priced {
		return Snapshot{}, ErrPriceStale
	}

	return Snapshot{
		DraftID:         d.ID,
		ExperienceID:    d.Experience.ID,
		ExperienceType:  d.Experience.Type,
		ExperienceTitle: d.Experience.Title,
		UnitPrice:       d.Experience.UnitPrice,
		StartDate:       *d.Dates.StartDate,
		EndDate:         *d.Dates.EndDate,
		DurationDays:    d.Dates.DurationDays,
		Adults:          d.Travelers.Adults,
		Children:        d.Travelers.Children,
		TotalPrice:      d.TotalPrice,
		Contact:         d.Travelers.Contact,
	}, nil
}

// AttachBooking records the backend booking. Called by the pipeline only.
func (d *Draft) AttachBooking(id, reference string) error {
	if id == "" || reference == "" {
		return ErrPaymentNotReady
	}
	if d.BookingID != "" && d.BookingID != id {
		return ErrDraftLocked
	}
	d.BookingID = id
	d.BookingReference = reference
	return nil
}

// AttachPaymentIntent records the intent created for the attached booking.
func (d *Draft) AttachPaymentIntent(id, clientSecret string) error {
	if d.BookingID == "" || id == "" || clientSecret == "" {
		return ErrPaymentNotReady
	}
	d.PaymentIntentID = id
	d.PaymentClientSecret = clientSecret
	return nil
}

// DetachBooking drops a booking that lapsed before it was paid and returns
// the draft to summary, unlocked, so a new booking can be submitted.
func (d *Draft) DetachBooking() error {
	if d.Step != StepSummary && d.Step != StepPayment {
		return wrongStep("detach booking", StepSummary, d.Step)
	}
	d.BookingID = ""
	d.BookingReference = ""
	d.PaymentIntentID = ""
	d.PaymentClientSecret = ""
	d.PaymentVerified = false
	d.Step = StepSummary
	return nil
}

// EnterPayment performs summary -> payment once booking and intent exist.
func (d *Draft) EnterPayment() error {
	if d.Step != StepSummary && d.Step != StepPayment {
		return wrongStep("enter payment", StepSummary, d.Step)
	}
	if d.BookingReference == "" || d.PaymentClientSecret == "" {
		return ErrPaymentNotReady
	}
	d.Step = StepPayment
	d.AwaitingSignIn = false
	return nil
}

// Confirm performs payment -> confirmation after the backend verified the payment.
func (d *Draft) Confirm(paymentIntentID string) error {
	if d.Step != StepPayment {
		return wrongStep("confirm", StepPayment, d.Step)
	}
	if d.BookingReference == "" {
		return ErrPaymentNotReady
	}
	if paymentIntentID == "" || paymentIntentID != d.PaymentIntentID {
		return ErrIntentMismatch
	}
	d.PaymentVerified = true
	d.Step = StepConfirmation
	d.Notice = nil
	return nil
}

func (d *Draft) SetNotice(code, message string) {
	d.Notice = &Notice{Code: code, Message: message}
}

func (d *Draft) ClearNotice() {
	d.Notice = nil
}

func (d *Draft) editableAt(step Step, action string) error {
	if d.Step != step {
		return wrongStep(action, step, d.Step)
	}
	if d.Locked() {
		return ErrDraftLocked
	}
	return nil
}

// checkBookable holds every gate that leads to summary.
func (d *Draft) checkBookable() error {
	if d.Experience == nil {
		return ErrExperienceRequired
	}
	if !d.Dates.Complete() {
		return ErrDatesIncomplete
	}
	if errs := validation.Struct(d.Travelers.Contact); len(errs) > 0 {
		return &ContactError{Fields: errs}
	}
	return nil
}

func (d *Draft) price() {
	d.TotalPrice = TotalPrice(d.Experience.UnitPrice, d.Dates.DurationDays, d.Travelers.Adults, d.Travelers.Children)
	d.Priced = true
}

func (d *Draft) invalidatePrice() {
	d.TotalPrice = 0
	d.Priced = false
}
