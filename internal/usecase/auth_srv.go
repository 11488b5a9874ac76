package usecase

import (
	"context"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/dto/request"
	"marketplace-payments/pkg/utils"

	"go.uber.org/zap"
)

const sessionTTL = 24 * time.Hour

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, req *request.LoginRequest, userAgent, ipAddress string) (*entity.User, *entity.Session, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewAuthService(repo *repository.Repository, log *zap.Logger) AuthService {
	return &authService{
		repo: repo,
		log:  log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*entity.User, error) {
	if fields := utils.ValidateStruct(req); fields != nil {
		return nil, NewFieldValidationError(fields)
	}

	existing, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewValidationError("email already registered")
	}

	existing, err = s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewValidationError("username already taken")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Role:         entity.RoleCustomer,
		IsActive:     true,
	}
	user.ID = utils.GenerateUUID()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := s.repo.User.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
	)

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest, userAgent, ipAddress string) (*entity.User, *entity.Session, error) {
	if fields := utils.ValidateStruct(req); fields != nil {
		return nil, nil, NewFieldValidationError(fields)
	}

	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.IsActive || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, nil, ErrUnauthorized
	}

	now := time.Now()
	session := &entity.Session{
		UserID:    user.ID,
		Token:     utils.GenerateSessionToken(),
		ExpiresAt: now.Add(sessionTTL),
	}
	session.ID = utils.GenerateUUID()
	session.CreatedAt = now
	if userAgent != "" {
		session.UserAgent = &userAgent
	}
	if ipAddress != "" {
		session.IPAddress = &ipAddress
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, nil, err
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))

	return user, session, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	return s.repo.Session.Revoke(ctx, token)
}
