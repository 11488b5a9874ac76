package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid"
	PayoutStatusFailed  PayoutStatus = "failed"
)

// Payout records a platform-to-provider disbursement tied to a booking.
// Created pending unless a privileged administrator creates it, in which
// case it starts paid with the authorizing admin recorded.
type Payout struct {
	BaseNoDelete
	RecipientID uuid.UUID       `db:"recipient_id"`
	Amount      decimal.Decimal `db:"amount"`
	Status      PayoutStatus    `db:"status"`
	BookingID   uuid.UUID       `db:"booking_id"`
	PaidByAdmin *uuid.UUID      `db:"paid_by_admin"`
	CreatedBy   uuid.UUID       `db:"created_by"`
	Note        *string         `db:"note"`
}
