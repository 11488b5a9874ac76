package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mtnMoMoAdapter drives the MTN Mobile Money collection API. The flow is
// asynchronous: requesttopay is accepted with 202 and the subscriber
// approves on their handset; the outcome arrives via callback or poll.
type mtnMoMoAdapter struct {
	config utils.MTNMoMoConfig
	client *http.Client
	log    *zap.Logger
}

func NewMTNMoMoAdapter(config utils.MTNMoMoConfig, log *zap.Logger) ProviderAdapter {
	return &mtnMoMoAdapter{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With(zap.String("provider", "mtn_momo")),
	}
}

func (a *mtnMoMoAdapter) Name() entity.MethodName {
	return entity.MethodMTNMoMo
}

type momoTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type momoErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type momoStatusResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// token obtains a short-lived bearer token for the collection product.
func (a *mtnMoMoAdapter) token(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/collection/token/", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(a.config.APIUser, a.config.APIKey)
	req.Header.Set("Ocp-Apim-Subscription-Key", a.config.SubscriptionKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned %d", resp.StatusCode)
	}

	var tokenResp momoTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	return tokenResp.AccessToken, nil
}

func (a *mtnMoMoAdapter) Initiate(ctx context.Context, txn *entity.Transaction) (*InitiationResult, error) {
	accessToken, err := a.token(ctx)
	if err != nil {
		return nil, &TransportError{Provider: "mtn_momo", Err: err}
	}

	// The X-Reference-Id becomes the provider-side id for all later calls.
	referenceID := uuid.New().String()

	body := map[string]any{
		"amount":     txn.Amount.String(),
		"currency":   txn.Currency,
		"externalId": txn.Reference,
		"payer": map[string]string{
			"partyIdType": "MSISDN",
			"partyId":     txn.Metadata[entity.MetaSubscriberNumber],
		},
		"payerMessage": txn.Description,
		"payeeNote":    string(txn.Purpose),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Provider: "mtn_momo", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/collection/v1_0/requesttopay", bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Provider: "mtn_momo", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Reference-Id", referenceID)
	req.Header.Set("X-Target-Environment", a.config.Environment)
	req.Header.Set("Ocp-Apim-Subscription-Key", a.config.SubscriptionKey)
	req.Header.Set("Content-Type", "application/json")
	if a.config.CallbackURL != "" {
		req.Header.Set("X-Callback-Url", a.config.CallbackURL)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		// The request to pay may have reached the collection API; carry
		// the reference so the caller can still poll the outcome.
		return nil, &TransportError{
			Provider:       "mtn_momo",
			Err:            err,
			OutcomeUnknown: true,
			ExternalID:     referenceID,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		a.log.Info("Request to pay accepted",
			zap.String("reference", txn.Reference),
			zap.String("provider_reference", referenceID),
		)
		return &InitiationResult{
			ExternalID: referenceID,
			Completed:  false,
			RawStatus:  "PENDING",
		}, nil
	}

	raw, _ := io.ReadAll(resp.Body)

	// 4xx with a decoded body is a provider-declared decline.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var momoErr momoErrorResponse
		if err := json.Unmarshal(raw, &momoErr); err == nil && momoErr.Message != "" {
			return nil, &BusinessError{
				Provider: "mtn_momo",
				Code:     momoErr.Code,
				Message:  momoErr.Message,
			}
		}
	}

	return nil, &TransportError{
		Provider:       "mtn_momo",
		Err:            fmt.Errorf("requesttopay returned %d: %s", resp.StatusCode, string(raw)),
		OutcomeUnknown: true,
		ExternalID:     referenceID,
	}
}

func (a *mtnMoMoAdapter) CheckStatus(ctx context.Context, txn *entity.Transaction) (string, error) {
	if txn.ExternalID == nil {
		return "", &TransportError{
			Provider: "mtn_momo",
			Err:      fmt.Errorf("transaction %s has no provider reference", txn.Reference),
		}
	}

	accessToken, err := a.token(ctx)
	if err != nil {
		return "", &TransportError{Provider: "mtn_momo", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.BaseURL+"/collection/v1_0/requesttopay/"+*txn.ExternalID, nil)
	if err != nil {
		return "", &TransportError{Provider: "mtn_momo", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Target-Environment", a.config.Environment)
	req.Header.Set("Ocp-Apim-Subscription-Key", a.config.SubscriptionKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: "mtn_momo", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &TransportError{
			Provider: "mtn_momo",
			Err:      fmt.Errorf("status check returned %d", resp.StatusCode),
		}
	}

	var statusResp momoStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return "", &TransportError{Provider: "mtn_momo", Err: fmt.Errorf("decode status response: %w", err)}
	}

	return statusResp.Status, nil
}

func (a *mtnMoMoAdapter) NormalizeStatus(providerStatus string) entity.TransactionStatus {
	switch providerStatus {
	case "SUCCESSFUL":
		return entity.TransactionStatusSuccess
	case "FAILED", "TIMEOUT", "REJECTED":
		return entity.TransactionStatusFailed
	default:
		// PENDING and anything unrecognized keep the transaction open.
		return entity.TransactionStatusProcessing
	}
}
