package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusSuccess    TransactionStatus = "success"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
)

// Terminal reports whether no further transition may leave the status.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case TransactionStatusSuccess, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// CanTransition checks the one-directional status machine:
// pending -> processing -> {success, failed}; pending -> {success, failed,
// cancelled}. Terminal states have no exits.
func CanTransition(from, to TransactionStatus) bool {
	allowed := map[TransactionStatus][]TransactionStatus{
		TransactionStatusPending: {
			TransactionStatusProcessing,
			TransactionStatusSuccess,
			TransactionStatusFailed,
			TransactionStatusCancelled,
		},
		TransactionStatusProcessing: {
			TransactionStatusSuccess,
			TransactionStatusFailed,
		},
	}

	for _, t := range allowed[from] {
		if t == to {
			return true
		}
	}
	return false
}

type TransactionPurpose string

const (
	PurposeTutorial TransactionPurpose = "tutorial"
	PurposeBooking  TransactionPurpose = "booking"
	PurposeOther    TransactionPurpose = "other"
)

// RelatedKind tags the domain object a transaction pays for. The pair
// {RelatedKind, RelatedID} replaces a reflective foreign key; resolution is an
// explicit per-kind switch in the settlement path.
type RelatedKind string

const (
	RelatedBooking  RelatedKind = "booking"
	RelatedTutorial RelatedKind = "tutorial"
	RelatedOther    RelatedKind = "other"
)

// Metadata is the open key-value bag of provider-specific fields
// (payer phone, callback URLs, provider tokens). Stored as jsonb.
type Metadata map[string]string

// Common metadata keys.
const (
	MetaSubscriberNumber = "subscriber_number"
	MetaNotifURL         = "notif_url"
	MetaReturnURL        = "return_url"
	MetaCancelURL        = "cancel_url"
	MetaCardToken        = "card_token"
	MetaPayToken         = "pay_token"
)

type Transaction struct {
	BaseNoDelete
	UserID         uuid.UUID          `db:"user_id"`
	MethodID       uuid.UUID          `db:"method_id"`
	Amount         decimal.Decimal    `db:"amount"`
	Currency       string             `db:"currency"`
	Status         TransactionStatus  `db:"status"`
	Reference      string             `db:"reference"`
	ExternalID     *string            `db:"external_id"`
	Purpose        TransactionPurpose `db:"purpose"`
	Description    string             `db:"description"`
	Metadata       Metadata           `db:"metadata"`
	RelatedKind    *RelatedKind       `db:"related_kind"`
	RelatedID      *uuid.UUID         `db:"related_id"`
	PaidToPlatform bool               `db:"paid_to_platform"`
}
