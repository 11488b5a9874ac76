package usecase

import (
	"context"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/dto/request"
	"marketplace-payments/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PayoutService interface {
	// Create records a disbursement for a booking. An administrator's
	// payout is paid immediately with the authorization recorded; anyone
	// else produces a pending record awaiting an admin.
	Create(ctx context.Context, actor *entity.User, req *request.CreatePayoutRequest) (*entity.Payout, error)

	// MarkPaid settles a pending payout and flips the booking's
	// paid-to-provider flag atomically.
	MarkPaid(ctx context.Context, adminID, payoutID uuid.UUID) (*entity.Payout, error)

	GetByID(ctx context.Context, userID uuid.UUID, role entity.UserRole, payoutID uuid.UUID) (*entity.Payout, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*entity.Payout, int64, error)
	ListAll(ctx context.Context, page, limit int) ([]*entity.Payout, int64, error)
}

type payoutService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewPayoutService(repo *repository.Repository, log *zap.Logger) PayoutService {
	return &payoutService{
		repo: repo,
		log:  log.With(zap.String("service", "payout")),
	}
}

func (s *payoutService) Create(ctx context.Context, actor *entity.User, req *request.CreatePayoutRequest) (*entity.Payout, error) {
	if fields := utils.ValidateStruct(req); fields != nil {
		return nil, NewFieldValidationError(fields)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, NewValidationError("amount must be a decimal number")
	}
	if !amount.IsPositive() {
		return nil, NewValidationError("amount must be greater than zero")
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, NewValidationError("booking_id must be a valid UUID")
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		return nil, NewValidationError("recipient_id must be a valid UUID")
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, NewValidationError("booking not found")
	}

	recipient, err := s.repo.User.FindByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, NewValidationError("recipient not found")
	}

	now := time.Now()
	payout := &entity.Payout{
		RecipientID: recipientID,
		Amount:      amount,
		Status:      entity.PayoutStatusPending,
		BookingID:   bookingID,
		CreatedBy:   actor.ID,
		Note:        req.Note,
	}
	payout.ID = utils.GenerateUUID()
	payout.CreatedAt = now
	payout.UpdatedAt = now

	if actor.Role == entity.RoleAdmin {
		adminID := actor.ID
		payout.Status = entity.PayoutStatusPaid
		payout.PaidByAdmin = &adminID

		if err := s.repo.Settlement.CreatePaidPayout(ctx, payout); err != nil {
			return nil, err
		}

		s.log.Info("Payout created and paid by admin",
			zap.String("payout_id", payout.ID.String()),
			zap.String("booking_id", bookingID.String()),
			zap.String("admin_id", adminID.String()),
		)
		return payout, nil
	}

	if err := s.repo.Payout.Create(ctx, payout); err != nil {
		return nil, err
	}

	s.log.Info("Payout recorded pending admin settlement",
		zap.String("payout_id", payout.ID.String()),
		zap.String("booking_id", bookingID.String()),
	)
	return payout, nil
}

func (s *payoutService) MarkPaid(ctx context.Context, adminID, payoutID uuid.UUID) (*entity.Payout, error) {
	payout, err := s.repo.Payout.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrNotFound
	}
	if payout.Status != entity.PayoutStatusPending {
		return nil, &AlreadyProcessedError{Reference: payout.ID.String(), Status: string(payout.Status)}
	}

	changed, err := s.repo.Settlement.MarkPayoutPaid(ctx, payoutID, adminID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Another admin settled it between the read and the update.
		fresh, ferr := s.repo.Payout.FindByID(ctx, payoutID)
		status := string(entity.PayoutStatusPaid)
		if ferr == nil && fresh != nil {
			status = string(fresh.Status)
		}
		return nil, &AlreadyProcessedError{Reference: payout.ID.String(), Status: status}
	}

	fresh, err := s.repo.Payout.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return payout, nil
	}

	s.log.Info("Payout marked paid",
		zap.String("payout_id", payoutID.String()),
		zap.String("admin_id", adminID.String()),
	)
	return fresh, nil
}

func (s *payoutService) GetByID(ctx context.Context, userID uuid.UUID, role entity.UserRole, payoutID uuid.UUID) (*entity.Payout, error) {
	payout, err := s.repo.Payout.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrNotFound
	}
	if role != entity.RoleAdmin && payout.RecipientID != userID && payout.CreatedBy != userID {
		return nil, ErrNotFound
	}
	return payout, nil
}

func (s *payoutService) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*entity.Payout, int64, error) {
	offset := utils.CalculateOffset(page, limit)

	payouts, err := s.repo.Payout.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Payout.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return payouts, total, nil
}

func (s *payoutService) ListAll(ctx context.Context, page, limit int) ([]*entity.Payout, int64, error) {
	offset := utils.CalculateOffset(page, limit)

	payouts, err := s.repo.Payout.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Payout.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	return payouts, total, nil
}
