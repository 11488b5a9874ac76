package usecase

import (
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/provider"
	"marketplace-payments/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth        AuthService
	Transaction TransactionService
	Webhook     WebhookService
	Booking     BookingService
	Payout      PayoutService
}

func NewService(repo *repository.Repository, providers *provider.Registry, notifier Notifier, rules utils.PaymentRules, log *zap.Logger) *Service {
	return &Service{
		Auth:        NewAuthService(repo, log),
		Transaction: NewTransactionService(repo, providers, notifier, rules, log),
		Webhook:     NewWebhookService(repo, providers, notifier, rules, log),
		Booking:     NewBookingService(repo, log),
		Payout:      NewPayoutService(repo, log),
	}
}
