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

type TransactionRepository interface {
	Create(ctx context.Context, txn *entity.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	FindByReference(ctx context.Context, reference string) (*entity.Transaction, error)
	FindByExternalID(ctx context.Context, externalID string) (*entity.Transaction, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Transaction, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Transaction, error)
	CountAll(ctx context.Context) (int64, error)
	SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error

	// UpdateStatusIf is the conditional-update primitive every status
	// mutation goes through. It flips status only when the current status
	// matches from, and reports whether the row was updated. Concurrent
	// callers race on this; exactly one wins.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to entity.TransactionStatus) (bool, error)
}

type transactionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTransactionRepository(db database.PgxIface, log *zap.Logger) TransactionRepository {
	return &transactionRepository{
		db:  db,
		log: log.With(zap.String("repository", "transaction")),
	}
}

const transactionColumns = `
	id, user_id, method_id, amount, currency, status, reference, external_id,
	purpose, description, metadata, related_kind, related_id, paid_to_platform,
	created_at, updated_at
`

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var txn entity.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.MethodID,
		&txn.Amount,
		&txn.Currency,
		&txn.Status,
		&txn.Reference,
		&txn.ExternalID,
		&txn.Purpose,
		&txn.Description,
		&txn.Metadata,
		&txn.RelatedKind,
		&txn.RelatedID,
		&txn.PaidToPlatform,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	query := `
		INSERT INTO payment_transactions (id, user_id, method_id, amount, currency, status,
		    reference, external_id, purpose, description, metadata, related_kind,
		    related_id, paid_to_platform, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(ctx, query,
		txn.ID,
		txn.UserID,
		txn.MethodID,
		txn.Amount,
		txn.Currency,
		txn.Status,
		txn.Reference,
		txn.ExternalID,
		txn.Purpose,
		txn.Description,
		txn.Metadata,
		txn.RelatedKind,
		txn.RelatedID,
		txn.PaidToPlatform,
		txn.CreatedAt,
		txn.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create transaction",
			zap.Error(err),
			zap.String("reference", txn.Reference),
			zap.String("user_id", txn.UserID.String()),
		)
		return fmt.Errorf("create transaction %s: %w", txn.Reference, err)
	}

	return nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = $1`

	txn, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find transaction by ID",
			zap.Error(err),
			zap.String("transaction_id", id.String()),
		)
		return nil, fmt.Errorf("find transaction by ID %s: %w", id.String(), err)
	}

	return txn, nil
}

func (r *transactionRepository) FindByReference(ctx context.Context, reference string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE reference = $1`

	txn, err := scanTransaction(r.db.QueryRow(ctx, query, reference))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find transaction by reference",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("find transaction by reference %s: %w", reference, err)
	}

	return txn, nil
}

func (r *transactionRepository) FindByExternalID(ctx context.Context, externalID string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE external_id = $1`

	txn, err := scanTransaction(r.db.QueryRow(ctx, query, externalID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find transaction by external ID",
			zap.Error(err),
			zap.String("external_id", externalID),
		)
		return nil, fmt.Errorf("find transaction by external ID %s: %w", externalID, err)
	}

	return txn, nil
}

func (r *transactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.findMany(ctx, query, userID, limit, offset)
}

func (r *transactionRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payment_transactions WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count transactions for user %s: %w", userID.String(), err)
	}
	return total, nil
}

func (r *transactionRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM payment_transactions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	return r.findMany(ctx, query, limit, offset)
}

func (r *transactionRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payment_transactions`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return total, nil
}

func (r *transactionRepository) findMany(ctx context.Context, query string, args ...any) ([]*entity.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query transactions", zap.Error(err))
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txns []*entity.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			r.log.Error("Failed to scan transaction row", zap.Error(err))
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, txn)
	}

	return txns, nil
}

func (r *transactionRepository) SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error {
	query := `
		UPDATE payment_transactions
		SET external_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, externalID)
	if err != nil {
		r.log.Error("Failed to set external ID",
			zap.Error(err),
			zap.String("transaction_id", id.String()),
		)
		return fmt.Errorf("set external ID for transaction %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s not found", id.String())
	}

	return nil
}

func (r *transactionRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to entity.TransactionStatus) (bool, error) {
	query := `
		UPDATE payment_transactions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to update transaction status",
			zap.Error(err),
			zap.String("transaction_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("update transaction %s status %s -> %s: %w", id.String(), from, to, err)
	}

	return result.RowsAffected() > 0, nil
}
