package wire

import (
	"marketplace-payments/internal/adaptor"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayout(
	r chi.Router,
	payoutHandler *adaptor.PayoutHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// POST /api/payouts - Record a disbursement (admin settles immediately)
		r.Post("/api/payouts", payoutHandler.Create)

		// GET /api/payouts - Payouts received or created
		r.Get("/api/payouts", payoutHandler.List)

		// GET /api/payouts/{id}
		r.Get("/api/payouts/{id}", payoutHandler.GetByID)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/payouts", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(repo.User, log))

		// GET /api/admin/payouts - All payouts
		r.Get("/", payoutHandler.ListAll)

		// PUT /api/admin/payouts/{id}/pay - Settle a pending payout
		r.Put("/{id}/pay", payoutHandler.MarkPaid)
	})
}
