package wire

import (
	"atlas-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireExperience(r chi.Router, experienceHandler *adaptor.ExperienceHandler, g guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/experiences", experienceHandler.ListExperiences)
	r.Get("/api/experiences/{id}", experienceHandler.GetExperience)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/experiences", func(r chi.Router) {
		r.Use(g.auth)
		r.Use(g.admin)

		r.Post("/", experienceHandler.CreateExperience)
		r.Put("/{id}", experienceHandler.UpdateExperience)
		r.Delete("/{id}", experienceHandler.DeleteExperience)
	})
}
