package repository

import (
	"context"
	"fmt"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReceiptRepository interface {
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*entity.Receipt, error)
	CountByTransactionID(ctx context.Context, transactionID uuid.UUID) (int64, error)
}

type receiptRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReceiptRepository(db database.PgxIface, log *zap.Logger) ReceiptRepository {
	return &receiptRepository{
		db:  db,
		log: log.With(zap.String("repository", "receipt")),
	}
}

// Receipts are only ever inserted inside the settlement transaction
// (see settlement_repo.go); this repository is read-only.

func (r *receiptRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*entity.Receipt, error) {
	query := `
		SELECT id, transaction_id, issued_at, document, note
		FROM payment_receipts
		WHERE transaction_id = $1
	`

	var receipt entity.Receipt
	err := r.db.QueryRow(ctx, query, transactionID).Scan(
		&receipt.ID,
		&receipt.TransactionID,
		&receipt.IssuedAt,
		&receipt.Document,
		&receipt.Note,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find receipt by transaction ID",
			zap.Error(err),
			zap.String("transaction_id", transactionID.String()),
		)
		return nil, fmt.Errorf("find receipt for transaction %s: %w", transactionID.String(), err)
	}

	return &receipt, nil
}

func (r *receiptRepository) CountByTransactionID(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM payment_receipts WHERE transaction_id = $1`,
		transactionID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count receipts for transaction %s: %w", transactionID.String(), err)
	}
	return total, nil
}
