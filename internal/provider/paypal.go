package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/utils"

	"go.uber.org/zap"
)

// paypalAdapter drives the wallet checkout API. An order is created with
// return and cancel URLs, the payer approves it on the wallet side, and the
// capture outcome arrives via webhook.
type paypalAdapter struct {
	config utils.PayPalConfig
	client *http.Client
	log    *zap.Logger
}

func NewPayPalAdapter(config utils.PayPalConfig, log *zap.Logger) ProviderAdapter {
	return &paypalAdapter{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With(zap.String("provider", "paypal")),
	}
}

func (a *paypalAdapter) Name() entity.MethodName {
	return entity.MethodPayPal
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type paypalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type paypalErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (a *paypalAdapter) token(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(a.config.ClientID, a.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned %d", resp.StatusCode)
	}

	var tokenResp paypalTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	return tokenResp.AccessToken, nil
}

func (a *paypalAdapter) Initiate(ctx context.Context, txn *entity.Transaction) (*InitiationResult, error) {
	accessToken, err := a.token(ctx)
	if err != nil {
		return nil, &TransportError{Provider: "paypal", Err: err}
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"reference_id": txn.Reference,
				"description":  txn.Description,
				"amount": map[string]string{
					"currency_code": txn.Currency,
					"value":         txn.Amount.String(),
				},
			},
		},
		"application_context": map[string]string{
			"return_url": txn.Metadata[entity.MetaReturnURL],
			"cancel_url": txn.Metadata[entity.MetaCancelURL],
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Provider: "paypal", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/v2/checkout/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Provider: "paypal", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	// Any failure from here on is still safe to fail outright: without an
	// order id the payer never sees an approval link, so no payment can
	// complete.
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: "paypal", Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
		var orderResp paypalOrderResponse
		if err := json.Unmarshal(raw, &orderResp); err != nil {
			return nil, &TransportError{
				Provider: "paypal",
				Err:      fmt.Errorf("decode order response: %w", err),
			}
		}

		a.log.Info("Checkout order created",
			zap.String("reference", txn.Reference),
			zap.String("order_id", orderResp.ID),
		)
		return &InitiationResult{
			ExternalID: orderResp.ID,
			Completed:  false,
			RawStatus:  orderResp.Status,
		}, nil
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var payErr paypalErrorResponse
		if err := json.Unmarshal(raw, &payErr); err == nil && payErr.Message != "" {
			return nil, &BusinessError{
				Provider: "paypal",
				Code:     payErr.Name,
				Message:  payErr.Message,
			}
		}
	}

	return nil, &TransportError{
		Provider: "paypal",
		Err:      fmt.Errorf("create order returned %d: %s", resp.StatusCode, string(raw)),
	}
}

func (a *paypalAdapter) CheckStatus(ctx context.Context, txn *entity.Transaction) (string, error) {
	if txn.ExternalID == nil {
		return "", &TransportError{
			Provider: "paypal",
			Err:      fmt.Errorf("transaction %s has no order id", txn.Reference),
		}
	}

	accessToken, err := a.token(ctx)
	if err != nil {
		return "", &TransportError{Provider: "paypal", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.BaseURL+"/v2/checkout/orders/"+*txn.ExternalID, nil)
	if err != nil {
		return "", &TransportError{Provider: "paypal", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: "paypal", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &TransportError{
			Provider: "paypal",
			Err:      fmt.Errorf("order lookup returned %d", resp.StatusCode),
		}
	}

	var orderResp paypalOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return "", &TransportError{Provider: "paypal", Err: fmt.Errorf("decode order response: %w", err)}
	}

	return orderResp.Status, nil
}

func (a *paypalAdapter) NormalizeStatus(providerStatus string) entity.TransactionStatus {
	switch providerStatus {
	case "COMPLETED":
		return entity.TransactionStatusSuccess
	case "DENIED", "FAILED":
		return entity.TransactionStatusFailed
	case "CANCELLED", "VOIDED":
		return entity.TransactionStatusCancelled
	default:
		// CREATED, PENDING, SAVED, PAYER_ACTION_REQUIRED.
		return entity.TransactionStatusProcessing
	}
}
