package repository

import (
	"marketplace-payments/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User          UserRepository
	Session       SessionRepository
	PaymentMethod PaymentMethodRepository
	Transaction   TransactionRepository
	Receipt       ReceiptRepository
	Booking       BookingRepository
	Payout        PayoutRepository
	Settlement    SettlementRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:          NewUserRepository(db, log),
		Session:       NewSessionRepository(db, log),
		PaymentMethod: NewPaymentMethodRepository(db, log),
		Transaction:   NewTransactionRepository(db, log),
		Receipt:       NewReceiptRepository(db, log),
		Booking:       NewBookingRepository(db, log),
		Payout:        NewPayoutRepository(db, log),
		Settlement:    NewSettlementRepository(db, log),
	}
}
