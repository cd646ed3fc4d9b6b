package request

import "atlas-booking/internal/data/entity"

type RegisterRequest struct {
	FullName string  `json:"full_name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`

	// filled by the handler
	Client entity.ClientInfo `json:"-"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	Client entity.ClientInfo `json:"-"`
}
