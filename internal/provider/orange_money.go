package provider

import (
	"bytes"
	"context"
	"encoding/base64"
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

// orangeMoneyAdapter drives the Orange Money web payment API. Initiation
// creates a payment session identified by a pay_token; the subscriber
// completes the payment on Orange's page and the outcome arrives via the
// notif_url callback or a status poll.
type orangeMoneyAdapter struct {
	config utils.OrangeMoneyConfig
	client *http.Client
	log    *zap.Logger
}

func NewOrangeMoneyAdapter(config utils.OrangeMoneyConfig, log *zap.Logger) ProviderAdapter {
	return &orangeMoneyAdapter{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With(zap.String("provider", "orange_money")),
	}
}

func (a *orangeMoneyAdapter) Name() entity.MethodName {
	return entity.MethodOrangeMoney
}

type orangeTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type orangePaymentResponse struct {
	Status     int    `json:"status"`
	Message    string `json:"message"`
	PayToken   string `json:"pay_token"`
	PaymentURL string `json:"payment_url"`
	NotifToken string `json:"notif_token"`
}

type orangeStatusResponse struct {
	Status string `json:"status"`
	TxnID  string `json:"txnid"`
}

func (a *orangeMoneyAdapter) token(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/oauth/v3/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	credentials := base64.StdEncoding.EncodeToString(
		[]byte(a.config.ClientID + ":" + a.config.ClientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned %d", resp.StatusCode)
	}

	var tokenResp orangeTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	return tokenResp.AccessToken, nil
}

func (a *orangeMoneyAdapter) Initiate(ctx context.Context, txn *entity.Transaction) (*InitiationResult, error) {
	accessToken, err := a.token(ctx)
	if err != nil {
		return nil, &TransportError{Provider: "orange_money", Err: err}
	}

	body := map[string]any{
		"merchant_key": a.config.MerchantKey,
		"currency":     txn.Currency,
		"order_id":     txn.Reference,
		"amount":       txn.Amount.String(),
		"return_url":   txn.Metadata[entity.MetaReturnURL],
		"cancel_url":   txn.Metadata[entity.MetaReturnURL],
		"notif_url":    txn.Metadata[entity.MetaNotifURL],
		"lang":         "fr",
		"reference":    txn.Reference,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Provider: "orange_money", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/orange-money-webpay/"+a.config.Environment+"/v1/webpayment",
		bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Provider: "orange_money", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	// Any failure from here on is still safe to fail outright: without a
	// pay_token the subscriber never gets a payment page, so no payment
	// can complete.
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: "orange_money", Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
		var paymentResp orangePaymentResponse
		if err := json.Unmarshal(raw, &paymentResp); err != nil {
			return nil, &TransportError{
				Provider: "orange_money",
				Err:      fmt.Errorf("decode webpayment response: %w", err),
			}
		}
		if paymentResp.PayToken == "" {
			return nil, &TransportError{
				Provider: "orange_money",
				Err:      fmt.Errorf("webpayment response missing pay_token"),
			}
		}

		a.log.Info("Web payment session created",
			zap.String("reference", txn.Reference),
			zap.String("pay_token", paymentResp.PayToken),
		)
		return &InitiationResult{
			ExternalID: paymentResp.PayToken,
			Completed:  false,
			RawStatus:  "INITIATED",
		}, nil
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var paymentResp orangePaymentResponse
		if err := json.Unmarshal(raw, &paymentResp); err == nil && paymentResp.Message != "" {
			return nil, &BusinessError{
				Provider: "orange_money",
				Code:     fmt.Sprintf("%d", paymentResp.Status),
				Message:  paymentResp.Message,
			}
		}
	}

	return nil, &TransportError{
		Provider: "orange_money",
		Err:      fmt.Errorf("webpayment returned %d: %s", resp.StatusCode, string(raw)),
	}
}

func (a *orangeMoneyAdapter) CheckStatus(ctx context.Context, txn *entity.Transaction) (string, error) {
	if txn.ExternalID == nil {
		return "", &TransportError{
			Provider: "orange_money",
			Err:      fmt.Errorf("transaction %s has no pay token", txn.Reference),
		}
	}

	accessToken, err := a.token(ctx)
	if err != nil {
		return "", &TransportError{Provider: "orange_money", Err: err}
	}

	body := map[string]string{
		"order_id":  txn.Reference,
		"amount":    txn.Amount.String(),
		"pay_token": *txn.ExternalID,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", &TransportError{Provider: "orange_money", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/orange-money-webpay/"+a.config.Environment+"/v1/transactionstatus",
		bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Provider: "orange_money", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: "orange_money", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &TransportError{
			Provider: "orange_money",
			Err:      fmt.Errorf("status check returned %d", resp.StatusCode),
		}
	}

	var statusResp orangeStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return "", &TransportError{Provider: "orange_money", Err: fmt.Errorf("decode status response: %w", err)}
	}

	return statusResp.Status, nil
}

func (a *orangeMoneyAdapter) NormalizeStatus(providerStatus string) entity.TransactionStatus {
	// The API spells SUCCESSFULL with a double L.
	switch strings.ToUpper(providerStatus) {
	case "SUCCESSFULL", "SUCCESS":
		return entity.TransactionStatusSuccess
	case "FAILED", "EXPIRED":
		return entity.TransactionStatusFailed
	case "CANCELLED":
		return entity.TransactionStatusCancelled
	default:
		return entity.TransactionStatusProcessing
	}
}
