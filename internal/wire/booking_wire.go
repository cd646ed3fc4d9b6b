package wire

import (
	"atlas-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, g guards) {
	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.auth)

		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
		r.Get("/api/user/bookings/{id}", bookingHandler.GetUserBooking)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(g.auth)
		r.Use(g.admin)

		r.Get("/{id}", bookingHandler.GetBooking)
		r.Put("/{id}/cancel", bookingHandler.CancelBooking)
	})
}
