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

	"go.uber.org/zap"
)

// cardAdapter drives the card processor's charge API. Unlike the mobile
// money flows, a tokenized charge resolves within the initiate call itself;
// the processor still sends a confirmation webhook afterwards.
type cardAdapter struct {
	config utils.CardConfig
	client *http.Client
	log    *zap.Logger
}

func NewCardAdapter(config utils.CardConfig, log *zap.Logger) ProviderAdapter {
	return &cardAdapter{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With(zap.String("provider", "card")),
	}
}

func (a *cardAdapter) Name() entity.MethodName {
	return entity.MethodCard
}

type cardChargeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID        int64  `json:"id"`
		TxRef     string `json:"tx_ref"`
		FlwRef    string `json:"flw_ref"`
		Status    string `json:"status"`
		ChargeID  string `json:"charge_id"`
		Processor string `json:"processor_response"`
	} `json:"data"`
}

func (a *cardAdapter) Initiate(ctx context.Context, txn *entity.Transaction) (*InitiationResult, error) {
	body := map[string]any{
		"tx_ref":   txn.Reference,
		"amount":   txn.Amount.String(),
		"currency": txn.Currency,
		"token":    txn.Metadata[entity.MetaCardToken],
		"narration": fmt.Sprintf("%s payment %s",
			txn.Purpose, txn.Reference),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Provider: "card", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/v1/charges", bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Provider: "card", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+a.config.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		// The charge may have executed; verification by tx_ref resolves it.
		return nil, &TransportError{Provider: "card", Err: err, OutcomeUnknown: true}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 500 {
		return nil, &TransportError{
			Provider:       "card",
			Err:            fmt.Errorf("charge returned %d: %s", resp.StatusCode, string(raw)),
			OutcomeUnknown: true,
		}
	}

	var chargeResp cardChargeResponse
	if err := json.Unmarshal(raw, &chargeResp); err != nil {
		return nil, &TransportError{
			Provider:       "card",
			Err:            fmt.Errorf("decode charge response: %w", err),
			OutcomeUnknown: true,
		}
	}

	if resp.StatusCode >= 400 || chargeResp.Status == "error" {
		return nil, &BusinessError{
			Provider: "card",
			Code:     chargeResp.Data.Processor,
			Message:  chargeResp.Message,
		}
	}

	a.log.Info("Card charge resolved",
		zap.String("reference", txn.Reference),
		zap.String("charge_status", chargeResp.Data.Status),
		zap.String("provider_reference", chargeResp.Data.FlwRef),
	)

	return &InitiationResult{
		ExternalID: chargeResp.Data.FlwRef,
		Completed:  true,
		RawStatus:  chargeResp.Data.Status,
	}, nil
}

func (a *cardAdapter) CheckStatus(ctx context.Context, txn *entity.Transaction) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.BaseURL+"/v1/transactions/verify?tx_ref="+txn.Reference, nil)
	if err != nil {
		return "", &TransportError{Provider: "card", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+a.config.SecretKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: "card", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &TransportError{
			Provider: "card",
			Err:      fmt.Errorf("verify returned %d", resp.StatusCode),
		}
	}

	var chargeResp cardChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&chargeResp); err != nil {
		return "", &TransportError{Provider: "card", Err: fmt.Errorf("decode verify response: %w", err)}
	}

	return chargeResp.Data.Status, nil
}

func (a *cardAdapter) NormalizeStatus(providerStatus string) entity.TransactionStatus {
	switch providerStatus {
	case "successful":
		return entity.TransactionStatusSuccess
	case "failed":
		return entity.TransactionStatusFailed
	default:
		return entity.TransactionStatusProcessing
	}
}
