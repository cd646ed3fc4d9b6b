package response

import (
	"time"

	"atlas-booking/internal/data/entity"
)

type ExperienceResponse struct {
	ID          string                `json:"id"`
	Type        entity.ExperienceType `json:"type"`
	Title       string                `json:"title"`
	Description *string               `json:"description,omitempty"`
	Location    string                `json:"location"`
	UnitPrice   float64               `json:"unit_price"`
	ImageRef    *string               `json:"image_ref,omitempty"`
	IsActive    bool                  `json:"is_active"`
	CreatedAt   time.Time             `json:"created_at"`
}

func ExperienceToResponse(e *entity.Experience) ExperienceResponse {
	return ExperienceResponse{
		ID:          e.ID.String(),
		Type:        e.Type,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		UnitPrice:   e.UnitPrice,
		ImageRef:    e.ImageRef,
		IsActive:    e.IsActive,
		CreatedAt:   e.CreatedAt,
	}
}
