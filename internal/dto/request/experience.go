package request

type ExperienceQuery struct {
	Type string `validate:"omitempty,oneof=tour accommodation guide"`
	PaginatedRequest
}

type CreateExperienceRequest struct {
	Type        string  `json:"type" validate:"required,oneof=tour accommodation guide"`
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Location    string  `json:"location" validate:"required,max=120"`
	UnitPrice   float64 `json:"unit_price" validate:"gt=0"`
	ImageRef    *string `json:"image_ref,omitempty" validate:"omitempty,url"`
}

// UpdateExperienceRequest applies only the fields that are present.
type UpdateExperienceRequest struct {
	Type        *string  `json:"type,omitempty" validate:"omitempty,oneof=tour accommodation guide"`
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Location    *string  `json:"location,omitempty" validate:"omitempty,max=120"`
	UnitPrice   *float64 `json:"unit_price,omitempty" validate:"omitempty,gt=0"`
	ImageRef    *string  `json:"image_ref,omitempty" validate:"omitempty,url"`
	IsActive    *bool    `json:"is_active,omitempty"`
}
