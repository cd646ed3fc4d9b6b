package response

import (
	"time"

	"atlas-booking/internal/data/entity"
)

type BookingResponse struct {
	ID              string               `json:"id"`
	Reference       string               `json:"reference"`
	ExperienceID    string               `json:"experience_id"`
	ExperienceTitle string               `json:"experience_title"`
	StartDate       string               `json:"start_date"`
	EndDate         string               `json:"end_date"`
	DurationDays    int                  `json:"duration_days"`
	Adults          int                  `json:"adults"`
	Children        int                  `json:"children"`
	UnitPrice       float64              `json:"unit_price"`
	TotalPrice      float64              `json:"total_price"`
	Currency        string               `json:"currency"`
	ContactName     string               `json:"contact_name"`
	ContactEmail    string               `json:"contact_email"`
	ContactPhone    string               `json:"contact_phone"`
	SpecialRequests *string              `json:"special_requests,omitempty"`
	Status          entity.BookingStatus `json:"status"`
	ConfirmedAt     *time.Time           `json:"confirmed_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	Payments        []PaymentResponse    `json:"payments,omitempty"`
}

type PaymentResponse struct {
	IntentID string               `json:"intent_id"`
	Amount   float64              `json:"amount"`
	Currency string               `json:"currency"`
	Status   entity.PaymentStatus `json:"status"`
}

func BookingToResponse(b *entity.Booking, payments []*entity.Payment) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID.String(),
		Reference:       b.Reference,
		ExperienceID:    b.ExperienceID.String(),
		ExperienceTitle: b.ExperienceTitle,
		StartDate:       b.StartDate.Format(time.DateOnly),
		EndDate:         b.EndDate.Format(time.DateOnly),
		DurationDays:    b.DurationDays,
		Adults:          b.Adults,
		Children:        b.Children,
		UnitPrice:       b.UnitPrice,
		TotalPrice:      b.TotalPrice,
		Currency:        b.Currency,
		ContactName:     b.ContactName,
		ContactEmail:    b.ContactEmail,
		ContactPhone:    b.ContactPhone,
		SpecialRequests: b.SpecialRequests,
		Status:          b.Status,
		ConfirmedAt:     b.ConfirmedAt,
		CreatedAt:       b.CreatedAt,
	}

	for _, p := range payments {
		resp.Payments = append(resp.Payments, PaymentResponse{
			IntentID: p.IntentID,
			Amount:   p.Amount,
			Currency: p.Currency,
			Status:   p.Status,
		})
	}

	return resp
}
