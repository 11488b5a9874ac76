package provider

import (
	"context"
	"fmt"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/utils"

	"go.uber.org/zap"
)

// InitiationResult reports how the provider answered an initiate call.
type InitiationResult struct {
	// ExternalID is the provider-assigned transaction id, empty when the
	// provider keys on our own reference instead.
	ExternalID string
	// Completed is true when the provider resolved the payment within the
	// initiate call itself (card charges). Asynchronous providers accept
	// the request and confirm later via webhook.
	Completed bool
	// RawStatus is the provider's own status word for the request.
	RawStatus string
}

// ProviderAdapter is the uniform capability set over one external payment
// network. Initiate is called only on a validated transaction the engine
// has already claimed; CheckStatus is a best-effort poll used when no
// webhook arrived in the expected window.
type ProviderAdapter interface {
	Name() entity.MethodName
	Initiate(ctx context.Context, txn *entity.Transaction) (*InitiationResult, error)
	CheckStatus(ctx context.Context, txn *entity.Transaction) (string, error)

	// NormalizeStatus maps the provider's status vocabulary onto the
	// transaction status enum.
	NormalizeStatus(providerStatus string) entity.TransactionStatus
}

// TransportError is a network failure, timeout or malformed/5xx response.
// The provider never gave a usable verdict.
type TransportError struct {
	Provider string
	Err      error

	// OutcomeUnknown is true when a chargeable request may have reached the
	// provider, so money could still move. Failures before dispatch (token
	// handshake, request construction) leave it false, as do flows where
	// the payer never received a way to complete the payment.
	OutcomeUnknown bool

	// ExternalID carries the provider-side reference the adapter assigned
	// before a dispatched request failed, so the outcome can still be
	// polled. Empty when no reference exists.
	ExternalID string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BusinessError is a provider-declared decline (insufficient funds, invalid
// token). The request reached the provider and was rejected.
type BusinessError struct {
	Provider string
	Code     string
	Message  string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s declined: %s (%s)", e.Provider, e.Message, e.Code)
}

// Registry holds one adapter per payment method.
type Registry struct {
	momo   ProviderAdapter
	orange ProviderAdapter
	card   ProviderAdapter
	paypal ProviderAdapter
}

func NewRegistry(config *utils.Config, log *zap.Logger) *Registry {
	return &Registry{
		momo:   NewMTNMoMoAdapter(config.MTNMoMo, log),
		orange: NewOrangeMoneyAdapter(config.OrangeMoney, log),
		card:   NewCardAdapter(config.Card, log),
		paypal: NewPayPalAdapter(config.PayPal, log),
	}
}

// NewRegistryWith builds a registry from explicit adapters. Used by tests to
// substitute stubs.
func NewRegistryWith(momo, orange, card, paypal ProviderAdapter) *Registry {
	return &Registry{momo: momo, orange: orange, card: card, paypal: paypal}
}

// ForMethod selects the adapter for a payment method. The switch is
// exhaustive over the method enum.
func (r *Registry) ForMethod(method entity.MethodName) (ProviderAdapter, error) {
	switch method {
	case entity.MethodMTNMoMo:
		return r.momo, nil
	case entity.MethodOrangeMoney:
		return r.orange, nil
	case entity.MethodCard:
		return r.card, nil
	case entity.MethodPayPal:
		return r.paypal, nil
	default:
		return nil, fmt.Errorf("no provider adapter for method %q", method)
	}
}
