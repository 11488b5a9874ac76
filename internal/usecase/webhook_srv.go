package usecase

import (
	"context"
	"fmt"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/provider"
	"marketplace-payments/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookEvent is a provider confirmation after the HTTP layer has verified
// its signature and pulled out the identifying fields. Either ExternalID or
// Reference locates the transaction, depending on what the provider echoes.
type WebhookEvent struct {
	Method     entity.MethodName
	ExternalID string
	Reference  string
	RawStatus  string
}

type WebhookService interface {
	// HandleEvent applies a provider confirmation. Replays of an already
	// applied outcome are silent no-ops; only storage failures return an
	// error, so the provider retries exactly when a retry can help.
	HandleEvent(ctx context.Context, event *WebhookEvent) error

	// Reconcile polls the provider for a transaction stuck in processing
	// and applies whatever terminal outcome the provider reports.
	Reconcile(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error)
}

type webhookService struct {
	repo      *repository.Repository
	providers *provider.Registry
	resolver  *resolver
	log       *zap.Logger
}

func NewWebhookService(repo *repository.Repository, providers *provider.Registry, notifier Notifier, rules utils.PaymentRules, log *zap.Logger) WebhookService {
	return &webhookService{
		repo:      repo,
		providers: providers,
		resolver: &resolver{
			repo:              repo,
			notifier:          notifier,
			maxNotifyAttempts: rules.NotifyMaxAttempts,
			log:               log,
		},
		log: log.With(zap.String("service", "webhook")),
	}
}

func (s *webhookService) HandleEvent(ctx context.Context, event *WebhookEvent) error {
	adapter, err := s.providers.ForMethod(event.Method)
	if err != nil {
		return err
	}

	txn, err := s.findTransaction(ctx, event)
	if err != nil {
		return err
	}
	if txn == nil {
		return ErrNotFound
	}

	to := adapter.NormalizeStatus(event.RawStatus)

	if txn.Status.Terminal() {
		if txn.Status == to {
			s.log.Info("Webhook replay for resolved transaction",
				zap.String("reference", txn.Reference),
				zap.String("status", string(txn.Status)),
			)
			return nil
		}
		// Terminal states never change; a conflicting confirmation is
		// logged for investigation, not applied.
		s.log.Warn("Webhook conflicts with terminal status",
			zap.String("reference", txn.Reference),
			zap.String("current_status", string(txn.Status)),
			zap.String("webhook_status", string(to)),
			zap.String("raw_status", event.RawStatus),
		)
		return nil
	}

	if !to.Terminal() {
		// Intermediate provider statuses carry no state change.
		return nil
	}

	note := fmt.Sprintf("confirmed by %s webhook", event.Method)
	changed, err := s.resolver.apply(ctx, txn, to, &note)
	if err != nil {
		return err
	}
	if !changed {
		s.log.Info("Webhook lost resolution race",
			zap.String("reference", txn.Reference),
			zap.String("webhook_status", string(to)),
		)
	}

	return nil
}

func (s *webhookService) findTransaction(ctx context.Context, event *WebhookEvent) (*entity.Transaction, error) {
	if event.ExternalID != "" {
		return s.repo.Transaction.FindByExternalID(ctx, event.ExternalID)
	}
	if event.Reference != "" {
		return s.repo.Transaction.FindByReference(ctx, event.Reference)
	}
	return nil, nil
}

func (s *webhookService) Reconcile(ctx context.Context, txnID uuid.UUID) (*entity.Transaction, error) {
	txn, err := s.repo.Transaction.FindByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrNotFound
	}

	if txn.Status.Terminal() {
		// Already resolved; report the current state.
		return txn, nil
	}
	if txn.Status == entity.TransactionStatusPending {
		return nil, NewValidationError("transaction has not been handed to a provider yet")
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

	rawStatus, err := adapter.CheckStatus(ctx, txn)
	if err != nil {
		return nil, err
	}

	to := adapter.NormalizeStatus(rawStatus)
	if !to.Terminal() {
		s.log.Info("Provider still reports transaction in flight",
			zap.String("reference", txn.Reference),
			zap.String("raw_status", rawStatus),
		)
		return txn, nil
	}

	note := fmt.Sprintf("confirmed by %s reconciliation", method.Name)
	if _, err := s.resolver.apply(ctx, txn, to, &note); err != nil {
		return nil, err
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
