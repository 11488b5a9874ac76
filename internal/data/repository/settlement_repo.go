package repository

import (
	"context"
	"fmt"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SettlementRepository owns the multi-statement database transactions that
// keep a transaction's status consistent with its receipt and the linked
// booking's settlement flags. Either every statement commits or none does.
type SettlementRepository interface {
	// SettleSuccess flips the transaction to success, issues the receipt
	// and marks the linked booking as paid to platform, atomically. It
	// returns false without side effects when the status conditional
	// update loses (the transaction is no longer pending/processing).
	SettleSuccess(ctx context.Context, txn *entity.Transaction, receiptNote *string) (bool, error)

	// CreatePaidPayout inserts an already-paid payout and flips the
	// booking's paid-to-provider flag in the same database transaction.
	CreatePaidPayout(ctx context.Context, payout *entity.Payout) error

	// MarkPayoutPaid transitions a pending payout to paid, records the
	// authorizing admin, and flips the booking flag atomically. Returns
	// false when the payout is not pending.
	MarkPayoutPaid(ctx context.Context, payoutID, adminID uuid.UUID) (bool, error)
}

type settlementRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSettlementRepository(db database.PgxIface, log *zap.Logger) SettlementRepository {
	return &settlementRepository{
		db:  db,
		log: log.With(zap.String("repository", "settlement")),
	}
}

func (r *settlementRepository) SettleSuccess(ctx context.Context, txn *entity.Transaction, receiptNote *string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	// Conditional flip; losing the race means someone else already
	// resolved this transaction.
	result, err := tx.Exec(ctx, `
		UPDATE payment_transactions
		SET status = $2, paid_to_platform = true, updated_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)
	`, txn.ID, entity.TransactionStatusSuccess,
		entity.TransactionStatusPending, entity.TransactionStatusProcessing)
	if err != nil {
		return false, fmt.Errorf("settle transaction %s: %w", txn.ID.String(), err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	// Unique constraint on transaction_id keeps this at-most-one.
	_, err = tx.Exec(ctx, `
		INSERT INTO payment_receipts (id, transaction_id, issued_at, note)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (transaction_id) DO NOTHING
	`, uuid.New(), txn.ID, time.Now(), receiptNote)
	if err != nil {
		return false, fmt.Errorf("issue receipt for transaction %s: %w", txn.ID.String(), err)
	}

	if txn.RelatedKind != nil && *txn.RelatedKind == entity.RelatedBooking && txn.RelatedID != nil {
		_, err = tx.Exec(ctx, `
			UPDATE bookings
			SET paid_to_platform = true, updated_at = NOW()
			WHERE id = $1 AND deleted_at IS NULL
		`, *txn.RelatedID)
		if err != nil {
			return false, fmt.Errorf("mark booking %s paid to platform: %w", txn.RelatedID.String(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit settlement for transaction %s: %w", txn.ID.String(), err)
	}

	r.log.Info("Transaction settled",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("reference", txn.Reference),
	)

	return true, nil
}

func (r *settlementRepository) CreatePaidPayout(ctx context.Context, payout *entity.Payout) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin payout: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO payouts (id, recipient_id, amount, status, booking_id,
		    paid_by_admin, created_by, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, payout.ID, payout.RecipientID, payout.Amount, payout.Status,
		payout.BookingID, payout.PaidByAdmin, payout.CreatedBy, payout.Note,
		payout.CreatedAt, payout.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create paid payout for booking %s: %w", payout.BookingID.String(), err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings
		SET paid_to_provider = true, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, payout.BookingID)
	if err != nil {
		return fmt.Errorf("mark booking %s paid to provider: %w", payout.BookingID.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit paid payout for booking %s: %w", payout.BookingID.String(), err)
	}

	return nil
}

func (r *settlementRepository) MarkPayoutPaid(ctx context.Context, payoutID, adminID uuid.UUID) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin mark payout paid: %w", err)
	}
	defer tx.Rollback(ctx)

	var bookingID uuid.UUID
	err = tx.QueryRow(ctx, `
		UPDATE payouts
		SET status = $3, paid_by_admin = $2, updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING booking_id
	`, payoutID, adminID, entity.PayoutStatusPaid, entity.PayoutStatusPending).Scan(&bookingID)
	if err == pgx.ErrNoRows {
		// Payout missing or not pending.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mark payout %s paid: %w", payoutID.String(), err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings
		SET paid_to_provider = true, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, bookingID)
	if err != nil {
		return false, fmt.Errorf("mark booking %s paid to provider: %w", bookingID.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit mark payout %s paid: %w", payoutID.String(), err)
	}

	return true, nil
}
