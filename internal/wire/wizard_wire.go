package wire

import (
	"atlas-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireWizard exposes the booking wizard. Anonymous visitors may walk the
// steps; the pipeline asks them to sign in on submit.
func wireWizard(r chi.Router, wizardHandler *adaptor.WizardHandler, g guards) {
	r.With(g.auth).Post("/api/wizard/resume", wizardHandler.Resume)

	r.Route("/api/wizard", func(r chi.Router) {
		r.Use(g.optional)

		r.Post("/", wizardHandler.Start)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", wizardHandler.Get)
			r.Delete("/", wizardHandler.Discard)

			r.Put("/experience", wizardHandler.SelectExperience)
			r.Post("/dates", wizardHandler.SelectDate)
			r.Post("/travelers", wizardHandler.UpdateTravelers)
			r.Put("/contact", wizardHandler.UpdateContact)
			r.Post("/next", wizardHandler.Next)
			r.Post("/back", wizardHandler.Back)

			// these reach the booking and payment backends
			r.With(g.limit).Post("/submit", wizardHandler.Submit)
			r.With(g.limit).Post("/payment", wizardHandler.Pay)
		})
	})
}
