package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/dto/request"
	"marketplace-payments/internal/provider"
	"marketplace-payments/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TransactionService interface {
	Create(ctx context.Context, userID uuid.UUID, req *request.CreateTransactionRequest) (*entity.Transaction, error)

	// Initiate claims a pending transaction and hands it to the provider.
	// At most one concurrent caller reaches the provider; the rest get an
	// already-processed error.
	Initiate(ctx context.Context, userID, txnID uuid.UUID) (*entity.Transaction, error)

	// Cancel abandons a transaction that has not been handed to a provider.
	Cancel(ctx context.Context, userID, txnID uuid.UUID) (*entity.Transaction, error)

	GetByID(ctx context.Context, userID uuid.UUID, role entity.UserRole, txnID uuid.UUID) (*entity.Transaction, *entity.Receipt, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*entity.Transaction, int64, error)
	ListAll(ctx context.Context, page, limit int) ([]*entity.Transaction, int64, error)
	ListMethods(ctx context.Context) ([]*entity.PaymentMethod, error)
}

type transactionService struct {
	repo      *repository.Repository
	providers *provider.Registry
	resolver  *resolver
	rules     utils.PaymentRules
	log       *zap.Logger
}

func NewTransactionService(repo *repository.Repository, providers *provider.Registry, notifier Notifier, rules utils.PaymentRules, log *zap.Logger) TransactionService {
	return &transactionService{
		repo:      repo,
		providers: providers,
		resolver: &resolver{
			repo:              repo,
			notifier:          notifier,
			maxNotifyAttempts: rules.NotifyMaxAttempts,
			log:               log,
		},
		rules: rules,
		log:   log.With(zap.String("service", "transaction")),
	}
}

func (s *transactionService) Create(ctx context.Context, userID uuid.UUID, req *request.CreateTransactionRequest) (*entity.Transaction, error) {
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

	methodName := entity.MethodName(req.Method)
	if !methodName.Valid() {
		return nil, NewValidationError(fmt.Sprintf("unknown payment method %q", req.Method))
	}

	method, err := s.repo.PaymentMethod.FindByName(ctx, methodName)
	if err != nil {
		return nil, err
	}
	if method == nil || !method.IsActive {
		return nil, NewValidationError(fmt.Sprintf("payment method %q is not available", req.Method))
	}

	currency := strings.ToUpper(req.Currency)
	if err := s.validateCurrency(methodName, currency); err != nil {
		return nil, err
	}

	metadata := entity.Metadata(req.Metadata)
	if metadata == nil {
		metadata = entity.Metadata{}
	}
	if err := s.validateMetadata(methodName, metadata); err != nil {
		return nil, err
	}

	relatedKind, relatedID, err := s.resolveRelated(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	txn := &entity.Transaction{
		UserID:      userID,
		MethodID:    method.ID,
		Amount:      amount,
		Currency:    currency,
		Status:      entity.TransactionStatusPending,
		Reference:   utils.GenerateReference(s.rules.ReferencePrefix),
		Purpose:     entity.TransactionPurpose(req.Purpose),
		Description: req.Description,
		Metadata:    metadata,
		RelatedKind: relatedKind,
		RelatedID:   relatedID,
	}
	txn.ID = utils.GenerateUUID()
	txn.CreatedAt = now
	txn.UpdatedAt = now

	if err := s.repo.Transaction.Create(ctx, txn); err != nil {
		return nil, err
	}

	s.log.Info("Transaction created",
		zap.String("reference", txn.Reference),
		zap.String("method", string(methodName)),
		zap.String("amount", amount.String()),
		zap.String("currency", currency),
	)

	return txn, nil
}

// validateCurrency enforces the per-method currency rules: mobile money
// settles only in the local currency, card and wallet methods also accept
// the configured major currencies.
func (s *transactionService) validateCurrency(method entity.MethodName, currency string) error {
	if currency == s.rules.LocalCurrency {
		return nil
	}

	switch method {
	case entity.MethodMTNMoMo, entity.MethodOrangeMoney:
		return NewValidationError(fmt.Sprintf("%s only supports %s", method, s.rules.LocalCurrency))
	}

	for _, major := range s.rules.MajorCurrencies {
		if currency == major {
			return nil
		}
	}

	return NewValidationError(fmt.Sprintf("currency %s is not supported for %s", currency, method))
}

func (s *transactionService) validateMetadata(method entity.MethodName, metadata entity.Metadata) error {
	switch method {
	case entity.MethodMTNMoMo:
		return s.validateSubscriberNumber(metadata[entity.MetaSubscriberNumber])
	case entity.MethodOrangeMoney:
		if metadata[entity.MetaNotifURL] == "" || metadata[entity.MetaReturnURL] == "" {
			return NewValidationError("orange_money requires notif_url and return_url metadata")
		}
	case entity.MethodCard:
		if metadata[entity.MetaCardToken] == "" {
			return NewValidationError("card requires card_token metadata")
		}
	case entity.MethodPayPal:
		if metadata[entity.MetaReturnURL] == "" || metadata[entity.MetaCancelURL] == "" {
			return NewValidationError("paypal requires return_url and cancel_url metadata")
		}
	}
	return nil
}

func (s *transactionService) validateSubscriberNumber(number string) error {
	if len(number) != s.rules.SubscriberNumLen {
		return NewValidationError(fmt.Sprintf("subscriber_number must be %d digits", s.rules.SubscriberNumLen))
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			return NewValidationError("subscriber_number must contain only digits")
		}
	}
	if !strings.HasPrefix(number, s.rules.SubscriberPrefix) {
		return NewValidationError(fmt.Sprintf("subscriber_number must start with %s", s.rules.SubscriberPrefix))
	}
	return nil
}

func (s *transactionService) resolveRelated(ctx context.Context, userID uuid.UUID, req *request.CreateTransactionRequest) (*entity.RelatedKind, *uuid.UUID, error) {
	if req.RelatedKind == nil && req.RelatedID == nil {
		return nil, nil, nil
	}
	if req.RelatedKind == nil || req.RelatedID == nil {
		return nil, nil, NewValidationError("related_kind and related_id must be provided together")
	}

	kind := entity.RelatedKind(*req.RelatedKind)
	id, err := uuid.Parse(*req.RelatedID)
	if err != nil {
		return nil, nil, NewValidationError("related_id must be a valid UUID")
	}

	// Only bookings are resolvable today; tutorial and other links are
	// recorded but nothing settles against them.
	if kind == entity.RelatedBooking {
		booking, err := s.repo.Booking.FindByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if booking == nil || booking.UserID != userID {
			return nil, nil, NewValidationError("related booking not found")
		}
	}

	return &kind, &id, nil
}

func (s *transactionService) Initiate(ctx context.Context, userID, txnID uuid.UUID) (*entity.Transaction, error) {
	txn, err := s.findOwned(ctx, userID, txnID)
	if err != nil {
		return nil, err
	}

	if txn.Status != entity.TransactionStatusPending {
		return nil, NewAlreadyProcessedError(txn.Reference, txn.Status)
	}

	method, err := s.repo.PaymentMethod.FindByID(ctx, txn.MethodID)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return nil, fmt.Errorf("payment method %s missing for transaction %s", txn.MethodID, txn.Reference)
	}

	adapter, err := s.providers.ForMethod(method.Name)
	if err != nil {
		return nil, err
	}

	// Claim. Losing the race means another request already took this
	// transaction to the provider.
	claimed, err := s.repo.Transaction.UpdateStatusIf(ctx, txn.ID,
		entity.TransactionStatusPending, entity.TransactionStatusProcessing)
	if err != nil {
		return nil, err
	}
	if !claimed {
		current := txn.Status
		if fresh, ferr := s.repo.Transaction.FindByID(ctx, txn.ID); ferr == nil && fresh != nil {
			current = fresh.Status
		}
		return nil, NewAlreadyProcessedError(txn.Reference, current)
	}
	txn.Status = entity.TransactionStatusProcessing

	result, err := adapter.Initiate(ctx, txn)
	if err != nil {
		var businessErr *provider.BusinessError
		if errors.As(err, &businessErr) {
			// The provider rejected the payment outright.
			if _, rerr := s.resolver.apply(ctx, txn, entity.TransactionStatusFailed, nil); rerr != nil {
				s.log.Error("Failed to mark declined transaction failed",
					zap.Error(rerr),
					zap.String("reference", txn.Reference),
				)
			}
			return nil, err
		}

		var transportErr *provider.TransportError
		if errors.As(err, &transportErr) && transportErr.OutcomeUnknown {
			// The request may have reached the provider, so money could
			// still move. The transaction stays processing for a webhook
			// or reconcile to resolve; keep any reference the adapter
			// assigned so the poll can find it.
			if transportErr.ExternalID != "" {
				if serr := s.repo.Transaction.SetExternalID(ctx, txn.ID, transportErr.ExternalID); serr != nil {
					s.log.Error("Failed to store provider reference",
						zap.Error(serr),
						zap.String("reference", txn.Reference),
					)
				}
			}
			s.log.Warn("Provider unreachable during initiation",
				zap.Error(err),
				zap.String("reference", txn.Reference),
			)
			return nil, err
		}

		// The provider never received a chargeable request, so nothing can
		// arrive later.
		if _, rerr := s.resolver.apply(ctx, txn, entity.TransactionStatusFailed, nil); rerr != nil {
			s.log.Error("Failed to mark unreachable transaction failed",
				zap.Error(rerr),
				zap.String("reference", txn.Reference),
			)
		}
		return nil, err
	}

	if result.ExternalID != "" {
		if err := s.repo.Transaction.SetExternalID(ctx, txn.ID, result.ExternalID); err != nil {
			return nil, err
		}
		externalID := result.ExternalID
		txn.ExternalID = &externalID
	}

	if result.Completed {
		note := fmt.Sprintf("settled synchronously by %s", method.Name)
		switch adapter.NormalizeStatus(result.RawStatus) {
		case entity.TransactionStatusSuccess:
			if _, err := s.resolver.apply(ctx, txn, entity.TransactionStatusSuccess, &note); err != nil {
				return nil, err
			}
		case entity.TransactionStatusFailed:
			if _, err := s.resolver.apply(ctx, txn, entity.TransactionStatusFailed, nil); err != nil {
				return nil, err
			}
		}
	}

	fresh, err := s.repo.Transaction.FindByID(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return txn, nil
	}
	return fresh, nil
}

func (s *transactionService) Cancel(ctx context.Context, userID, txnID uuid.UUID) (*entity.Transaction, error) {
	txn, err := s.findOwned(ctx, userID, txnID)
	if err != nil {
		return nil, err
	}

	if txn.Status != entity.TransactionStatusPending {
		return nil, NewAlreadyProcessedError(txn.Reference, txn.Status)
	}

	changed, err := s.resolver.apply(ctx, txn, entity.TransactionStatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	if !changed {
		current := txn.Status
		if fresh, ferr := s.repo.Transaction.FindByID(ctx, txn.ID); ferr == nil && fresh != nil {
			current = fresh.Status
		}
		return nil, NewAlreadyProcessedError(txn.Reference, current)
	}

	return txn, nil
}

func (s *transactionService) GetByID(ctx context.Context, userID uuid.UUID, role entity.UserRole, txnID uuid.UUID) (*entity.Transaction, *entity.Receipt, error) {
	txn, err := s.repo.Transaction.FindByID(ctx, txnID)
	if err != nil {
		return nil, nil, err
	}
	// A foreign transaction is indistinguishable from a missing one.
	if txn == nil || (role != entity.RoleAdmin && txn.UserID != userID) {
		return nil, nil, ErrNotFound
	}

	var receipt *entity.Receipt
	if txn.Status == entity.TransactionStatusSuccess {
		receipt, err = s.repo.Receipt.FindByTransactionID(ctx, txn.ID)
		if err != nil {
			return nil, nil, err
		}
	}

	return txn, receipt, nil
}

func (s *transactionService) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*entity.Transaction, int64, error) {
	offset := utils.CalculateOffset(page, limit)

	txns, err := s.repo.Transaction.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Transaction.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

func (s *transactionService) ListAll(ctx context.Context, page, limit int) ([]*entity.Transaction, int64, error) {
	offset := utils.CalculateOffset(page, limit)

	txns, err := s.repo.Transaction.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Transaction.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

func (s *transactionService) ListMethods(ctx context.Context) ([]*entity.PaymentMethod, error) {
	return s.repo.PaymentMethod.FindAllActive(ctx)
}

func (s *transactionService) findOwned(ctx context.Context, userID, txnID uuid.UUID) (*entity.Transaction, error) {
	txn, err := s.repo.Transaction.FindByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn == nil || txn.UserID != userID {
		return nil, ErrNotFound
	}
	return txn, nil
}
