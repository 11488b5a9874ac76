package usecase

import (
	"context"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/dto/request"
	"marketplace-payments/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	Create(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*entity.Booking, error)
	GetByID(ctx context.Context, userID uuid.UUID, role entity.UserRole, bookingID uuid.UUID) (*entity.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*entity.Booking, int64, error)
}

type bookingService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewBookingService(repo *repository.Repository, log *zap.Logger) BookingService {
	return &bookingService{
		repo: repo,
		log:  log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) Create(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*entity.Booking, error) {
	if fields := utils.ValidateStruct(req); fields != nil {
		return nil, NewFieldValidationError(fields)
	}

	serviceType := entity.ServiceType(req.ServiceType)

	var tutorID, guideID *uuid.UUID
	switch serviceType {
	case entity.ServiceTutoring:
		if req.TutorID == nil {
			return nil, NewValidationError("tutoring bookings require tutor_id")
		}
		id, err := uuid.Parse(*req.TutorID)
		if err != nil {
			return nil, NewValidationError("tutor_id must be a valid UUID")
		}
		tutorID = &id
	case entity.ServiceTourGuiding, entity.ServiceFestival:
		if req.GuideID == nil {
			return nil, NewValidationError("tour and festival bookings require guide_id")
		}
		id, err := uuid.Parse(*req.GuideID)
		if err != nil {
			return nil, NewValidationError("guide_id must be a valid UUID")
		}
		guideID = &id
	}

	now := time.Now()
	booking := &entity.Booking{
		UserID:      userID,
		TutorID:     tutorID,
		GuideID:     guideID,
		ServiceType: serviceType,
	}
	booking.ID = utils.GenerateUUID()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("service_type", string(serviceType)),
	)

	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, userID uuid.UUID, role entity.UserRole, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil || (role != entity.RoleAdmin && booking.UserID != userID) {
		return nil, ErrNotFound
	}
	return booking, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*entity.Booking, int64, error) {
	offset := utils.CalculateOffset(page, limit)

	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}
