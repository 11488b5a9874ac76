package entity

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is one-to-one with a successful transaction, created exactly once
// at the moment the transaction turns success. Uniqueness is enforced by a
// constraint on transaction_id.
type Receipt struct {
	ID            uuid.UUID `db:"id"`
	TransactionID uuid.UUID `db:"transaction_id"`
	IssuedAt      time.Time `db:"issued_at"`
	Document      *string   `db:"document"`
	Note          *string   `db:"note"`
}
