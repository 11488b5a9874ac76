package wire

import (
	"marketplace-payments/internal/adaptor"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// POST /api/bookings - Book a tutor, guide or festival
		r.Post("/api/bookings", bookingHandler.Create)

		// GET /api/bookings - Own bookings
		r.Get("/api/bookings", bookingHandler.List)

		// GET /api/bookings/{id} - Booking with settlement flags
		r.Get("/api/bookings/{id}", bookingHandler.GetByID)
	})
}
