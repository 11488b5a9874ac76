package wire

import (
	"marketplace-payments/internal/adaptor"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireTransaction(
	r chi.Router,
	transactionHandler *adaptor.TransactionHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/payment-methods - List active payment channels
	r.Get("/api/payment-methods", transactionHandler.ListMethods)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// POST /api/transactions - Record a new payment intent
		r.Post("/api/transactions", transactionHandler.Create)

		// GET /api/transactions - Own payment history
		r.Get("/api/transactions", transactionHandler.List)

		// GET /api/transactions/{id} - Own transaction with receipt
		r.Get("/api/transactions/{id}", transactionHandler.GetByID)

		// POST /api/transactions/{id}/initiate - Hand the payment to the provider
		r.Post("/api/transactions/{id}/initiate", transactionHandler.Initiate)

		// POST /api/transactions/{id}/cancel - Abandon before initiation
		r.Post("/api/transactions/{id}/cancel", transactionHandler.Cancel)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/transactions", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(repo.User, log))

		// GET /api/admin/transactions - All transactions
		r.Get("/", transactionHandler.ListAll)

		// POST /api/admin/transactions/{id}/reconcile - Poll the provider
		r.Post("/{id}/reconcile", transactionHandler.Reconcile)
	})
}
