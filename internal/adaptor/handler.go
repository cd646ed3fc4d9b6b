package adaptor

import (
	"atlas-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth       *AuthHandler
	Experience *ExperienceHandler
	Wizard     *WizardHandler
	Booking    *BookingHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(service.Auth, log),
		Experience: NewExperienceHandler(service.Experience, log),
		Wizard:     NewWizardHandler(service.Wizard, log),
		Booking:    NewBookingHandler(service.Booking, log),
	}
}
