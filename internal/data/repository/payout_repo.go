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

type PayoutRepository interface {
	Create(ctx context.Context, payout *entity.Payout) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payout, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payout, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Payout, error)
	CountAll(ctx context.Context) (int64, error)
}

type payoutRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPayoutRepository(db database.PgxIface, log *zap.Logger) PayoutRepository {
	return &payoutRepository{
		db:  db,
		log: log.With(zap.String("repository", "payout")),
	}
}

const payoutColumns = `
	id, recipient_id, amount, status, booking_id, paid_by_admin, created_by,
	note, created_at, updated_at
`

func scanPayout(row pgx.Row) (*entity.Payout, error) {
	var payout entity.Payout
	err := row.Scan(
		&payout.ID,
		&payout.RecipientID,
		&payout.Amount,
		&payout.Status,
		&payout.BookingID,
		&payout.PaidByAdmin,
		&payout.CreatedBy,
		&payout.Note,
		&payout.CreatedAt,
		&payout.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *payoutRepository) Create(ctx context.Context, payout *entity.Payout) error {
	query := `
		INSERT INTO payouts (id, recipient_id, amount, status, booking_id,
		    paid_by_admin, created_by, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		payout.ID,
		payout.RecipientID,
		payout.Amount,
		payout.Status,
		payout.BookingID,
		payout.PaidByAdmin,
		payout.CreatedBy,
		payout.Note,
		payout.CreatedAt,
		payout.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create payout",
			zap.Error(err),
			zap.String("booking_id", payout.BookingID.String()),
			zap.String("recipient_id", payout.RecipientID.String()),
		)
		return fmt.Errorf("create payout for booking %s: %w", payout.BookingID.String(), err)
	}

	return nil
}

func (r *payoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	payout, err := scanPayout(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payout by ID",
			zap.Error(err),
			zap.String("payout_id", id.String()),
		)
		return nil, fmt.Errorf("find payout by ID %s: %w", id.String(), err)
	}

	return payout, nil
}

func (r *payoutRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payout, error) {
	query := `SELECT ` + payoutColumns + `
		FROM payouts
		WHERE recipient_id = $1 OR created_by = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.findMany(ctx, query, userID, limit, offset)
}

func (r *payoutRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM payouts WHERE recipient_id = $1 OR created_by = $1`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count payouts for user %s: %w", userID.String(), err)
	}
	return total, nil
}

func (r *payoutRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Payout, error) {
	query := `SELECT ` + payoutColumns + `
		FROM payouts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	return r.findMany(ctx, query, limit, offset)
}

func (r *payoutRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payouts`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count payouts: %w", err)
	}
	return total, nil
}

func (r *payoutRepository) findMany(ctx context.Context, query string, args ...any) ([]*entity.Payout, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query payouts", zap.Error(err))
		return nil, fmt.Errorf("query payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*entity.Payout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			r.log.Error("Failed to scan payout row", zap.Error(err))
			return nil, fmt.Errorf("scan payout row: %w", err)
		}
		payouts = append(payouts, payout)
	}

	return payouts, nil
}
