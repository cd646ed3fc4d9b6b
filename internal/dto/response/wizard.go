package response

import (
	"time"

	"atlas-booking/internal/wizard"
)

// WizardResponse is the draft as the browser renders it. The client secret
// is only exposed while the draft waits for payment.
type WizardResponse struct {
	ID               string                `json:"id"`
	Step             wizard.Step           `json:"step"`
	Steps            []wizard.Step         `json:"steps"`
	Experience       *wizard.ExperienceRef `json:"experience"`
	StartDate        *string               `json:"start_date"`
	EndDate          *string               `json:"end_date"`
	DurationDays     int                   `json:"duration_days"`
	Adults           int                   `json:"adults"`
	Children         int                   `json:"children"`
	Contact          wizard.Contact        `json:"contact"`
	TotalPrice       *float64              `json:"total_price"`
	BookingReference string                `json:"booking_reference,omitempty"`
	ClientSecret     string                `json:"client_secret,omitempty"`
	PaymentVerified  bool                  `json:"payment_verified"`
	AwaitingSignIn   bool                  `json:"awaiting_sign_in"`
	Notice           *wizard.Notice        `json:"notice,omitempty"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

func WizardToResponse(d *wizard.Draft) *WizardResponse {
	resp := &WizardResponse{
		ID:               d.ID,
		Step:             d.Step,
		Steps:            wizard.Steps(),
		Experience:       d.Experience,
		StartDate:        formatDay(d.Dates.StartDate),
		EndDate:          formatDay(d.Dates.EndDate),
		DurationDays:     d.Dates.DurationDays,
		Adults:           d.Travelers.Adults,
		Children:         d.Travelers.Children,
		Contact:          d.Travelers.Contact,
		BookingReference: d.BookingReference,
		PaymentVerified:  d.PaymentVerified,
		AwaitingSignIn:   d.AwaitingSignIn,
		Notice:           d.Notice,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.Priced {
		total := d.TotalPrice
		resp.TotalPrice = &total
	}
	if d.Step == wizard.StepPayment {
		resp.ClientSecret = d.PaymentClientSecret
	}
	return resp
}

func formatDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
