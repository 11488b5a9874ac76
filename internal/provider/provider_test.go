package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func testTransaction(method entity.MethodName) *entity.Transaction {
	txn := &entity.Transaction{
		UserID:    uuid.New(),
		MethodID:  uuid.New(),
		Amount:    decimal.NewFromInt(5000),
		Currency:  "XAF",
		Status:    entity.TransactionStatusProcessing,
		Reference: "TXN-20260831120000-ABCD1234",
		Purpose:   entity.PurposeBooking,
		Metadata:  entity.Metadata{},
	}
	txn.ID = uuid.New()

	switch method {
	case entity.MethodMTNMoMo:
		txn.Metadata[entity.MetaSubscriberNumber] = "677001122"
	case entity.MethodOrangeMoney:
		txn.Metadata[entity.MetaNotifURL] = "https://example.test/notify"
		txn.Metadata[entity.MetaReturnURL] = "https://example.test/return"
	case entity.MethodCard:
		txn.Metadata[entity.MetaCardToken] = "tok_test_123"
		txn.Currency = "USD"
	case entity.MethodPayPal:
		txn.Metadata[entity.MetaReturnURL] = "https://example.test/return"
		txn.Metadata[entity.MetaCancelURL] = "https://example.test/cancel"
		txn.Currency = "USD"
	}

	return txn
}

func TestMTNMoMoInitiate(t *testing.T) {
	t.Run("accepted request returns provider reference", func(t *testing.T) {
		var gotReference string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/collection/token/":
				json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
			case "/collection/v1_0/requesttopay":
				gotReference = r.Header.Get("X-Reference-Id")
				if r.Header.Get("Authorization") != "Bearer tok" {
					t.Errorf("expected bearer token header, got %q", r.Header.Get("Authorization"))
				}
				w.WriteHeader(http.StatusAccepted)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		adapter := NewMTNMoMoAdapter(utils.MTNMoMoConfig{
			BaseURL:     server.URL,
			Environment: "sandbox",
		}, zap.NewNop())

		result, err := adapter.Initiate(context.Background(), testTransaction(entity.MethodMTNMoMo))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Completed {
			t.Error("expected asynchronous initiation, got completed")
		}
		if result.ExternalID == "" || result.ExternalID != gotReference {
			t.Errorf("expected external id %q to match X-Reference-Id header, got %q", gotReference, result.ExternalID)
		}
	})

	t.Run("decoded decline maps to business error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/collection/token/" {
				json.NewEncoder(w).Encode(map[string]any{"access_token": "tok"})
				return
			}
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{
				"code":    "PAYER_LIMIT_REACHED",
				"message": "payer monthly limit reached",
			})
		}))
		defer server.Close()

		adapter := NewMTNMoMoAdapter(utils.MTNMoMoConfig{BaseURL: server.URL}, zap.NewNop())

		_, err := adapter.Initiate(context.Background(), testTransaction(entity.MethodMTNMoMo))
		var businessErr *BusinessError
		if !errors.As(err, &businessErr) {
			t.Fatalf("expected business error, got %v", err)
		}
		if businessErr.Code != "PAYER_LIMIT_REACHED" {
			t.Errorf("expected code PAYER_LIMIT_REACHED, got %q", businessErr.Code)
		}
	})

	t.Run("server failure maps to transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/collection/token/" {
				json.NewEncoder(w).Encode(map[string]any{"access_token": "tok"})
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		adapter := NewMTNMoMoAdapter(utils.MTNMoMoConfig{BaseURL: server.URL}, zap.NewNop())

		_, err := adapter.Initiate(context.Background(), testTransaction(entity.MethodMTNMoMo))
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected transport error, got %v", err)
		}
		// The request to pay was dispatched, so the outcome is unknown and
		// the generated reference must be recoverable.
		if !transportErr.OutcomeUnknown {
			t.Error("expected unknown outcome after dispatch")
		}
		if transportErr.ExternalID == "" {
			t.Error("expected the generated reference carried on the error")
		}
	})

	t.Run("unreachable host maps to transport error", func(t *testing.T) {
		adapter := NewMTNMoMoAdapter(utils.MTNMoMoConfig{
			BaseURL: "http://127.0.0.1:1",
		}, zap.NewNop())

		_, err := adapter.Initiate(context.Background(), testTransaction(entity.MethodMTNMoMo))
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected transport error, got %v", err)
		}
		// Failing at the token handshake means nothing chargeable was sent.
		if transportErr.OutcomeUnknown {
			t.Error("expected known outcome before dispatch")
		}
	})
}

func TestMTNMoMoCheckStatus(t *testing.T) {
	externalID := uuid.New().String()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collection/token/" {
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok"})
			return
		}
		if r.URL.Path != "/collection/v1_0/requesttopay/"+externalID {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "SUCCESSFUL"})
	}))
	defer server.Close()

	adapter := NewMTNMoMoAdapter(utils.MTNMoMoConfig{BaseURL: server.URL}, zap.NewNop())

	txn := testTransaction(entity.MethodMTNMoMo)
	txn.ExternalID = &externalID

	status, err := adapter.CheckStatus(context.Background(), txn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "SUCCESSFUL" {
		t.Errorf("expected SUCCESSFUL, got %q", status)
	}

	t.Run("missing provider reference is a transport error", func(t *testing.T) {
		_, err := adapter.CheckStatus(context.Background(), testTransaction(entity.MethodMTNMoMo))
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected transport error, got %v", err)
		}
	})
}

func TestOrangeMoneyInitiate(t *testing.T) {
	t.Run("session created returns pay token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/oauth/v3/token":
				json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
			case "/orange-money-webpay/sandbox/v1/webpayment":
				var body map[string]any
				json.NewDecoder(r.Body).Decode(&body)
				if body["notif_url"] != "https://example.test/notify" {
					t.Errorf("expected notif_url to be forwarded, got %v", body["notif_url"])
				}
				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(map[string]any{
					"status":      201,
					"pay_token":   "pt-abc123",
					"payment_url": "https://webpayment.test/pt-abc123",
				})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		adapter := NewOrangeMoneyAdapter(utils.OrangeMoneyConfig{
			BaseURL:     server.URL,
			Environment: "sandbox",
		}, zap.NewNop())

		result, err := adapter.Initiate(context.Background(), testTransaction(entity.MethodOrangeMoney))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ExternalID != "pt-abc123" {
			t.Errorf("expected pay token pt-abc123, got %q", result.ExternalID)
		}
		if result.Completed {
			t.Error("expected asynchronous initiation, got completed")
		}
	})

	t.Run("missing pay token is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/oauth/v3/token" {
				json.NewEncoder(w).Encode(map[string]any{"access_token": "tok"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"status": 200})
		}))
		defer server.Close()

		adapter := NewOrangeMoneyAdapter(utils.OrangeMoneyConfig{
			BaseURL:     server.URL,
			Environment: "sandbox",
		}, zap.NewNop())

		_, err := adapter.Initiate(context.Background(), testTransaction(entity.MethodOrangeMoney))
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected transport error, got %v", err)
		}
		// No pay_token means the subscriber never gets a payment page.
		if transportErr.OutcomeUnknown {
			t.Error("expected a failure safe to mark failed")
		}
	})
}

func TestCardInitiate(t *testing.T) {
	t.Run("successful charge completes synchronously", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/charges" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer sk_test" {
				t.Errorf("expected secret key auth, got %q", r.Header.Get("Authorization"))
			}
			json.NewEncoder(w).Encode(map[string]any{
				"status":  "success",
				"message": "Charge successful",
				"data": map[string]any{
					"tx_ref":  "TXN-20260831120000-ABCD1234",
					"flw_ref": "CHG-998877",
					"status":  "successful",
				},
			})
		}))
		defer server.Close()

		adapter := NewCardAdapter(utils.CardConfig{
			BaseURL:   server.URL,
			SecretKey: "sk_test",
		}, zap.NewNop())

		result, err := adapter.Initiate(context.Background(), testTransaction(entity.MethodCard))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Completed {
			t.Error("expected synchronous completion")
		}
		if result.ExternalID != "CHG-998877" {
			t.Errorf("expected external id CHG-998877, got %q", result.ExternalID)
		}
		if result.RawStatus != "successful" {
			t.Errorf("expected raw status successful, got %q", result.RawStatus)
		}
	})

	t.Run("decline maps to business error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"status":  "error",
				"message": "Insufficient funds",
				"data": map[string]any{
					"processor_response": "51",
				},
			})
		}))
		defer server.Close()

		adapter := NewCardAdapter(utils.CardConfig{BaseURL: server.URL}, zap.NewNop())

		_, err := adapter.Initiate(context.Background(), testTransaction(entity.MethodCard))
		var businessErr *BusinessError
		if !errors.As(err, &businessErr) {
			t.Fatalf("expected business error, got %v", err)
		}
		if businessErr.Message != "Insufficient funds" {
			t.Errorf("expected decline message, got %q", businessErr.Message)
		}
	})

	t.Run("unparseable body is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>gateway timeout</html>"))
		}))
		defer server.Close()

		adapter := NewCardAdapter(utils.CardConfig{BaseURL: server.URL}, zap.NewNop())

		_, err := adapter.Initiate(context.Background(), testTransaction(entity.MethodCard))
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected transport error, got %v", err)
		}
		// The charge was dispatched and may have executed.
		if !transportErr.OutcomeUnknown {
			t.Error("expected unknown outcome after dispatch")
		}
	})
}

func TestPayPalInitiate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
		case "/v2/checkout/orders":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{
				"id":     "ORDER-5XY",
				"status": "CREATED",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	adapter := NewPayPalAdapter(utils.PayPalConfig{BaseURL: server.URL}, zap.NewNop())

	result, err := adapter.Initiate(context.Background(), testTransaction(entity.MethodPayPal))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExternalID != "ORDER-5XY" {
		t.Errorf("expected order id ORDER-5XY, got %q", result.ExternalID)
	}
	if result.Completed {
		t.Error("expected asynchronous initiation, got completed")
	}
}

func TestNormalizeStatus(t *testing.T) {
	log := zap.NewNop()
	momo := NewMTNMoMoAdapter(utils.MTNMoMoConfig{}, log)
	orange := NewOrangeMoneyAdapter(utils.OrangeMoneyConfig{}, log)
	card := NewCardAdapter(utils.CardConfig{}, log)
	paypal := NewPayPalAdapter(utils.PayPalConfig{}, log)

	tests := []struct {
		name     string
		adapter  ProviderAdapter
		raw      string
		expected entity.TransactionStatus
	}{
		{"momo successful", momo, "SUCCESSFUL", entity.TransactionStatusSuccess},
		{"momo failed", momo, "FAILED", entity.TransactionStatusFailed},
		{"momo timeout", momo, "TIMEOUT", entity.TransactionStatusFailed},
		{"momo pending", momo, "PENDING", entity.TransactionStatusProcessing},
		{"momo unknown", momo, "SOMETHING_NEW", entity.TransactionStatusProcessing},
		{"orange successfull", orange, "SUCCESSFULL", entity.TransactionStatusSuccess},
		{"orange expired", orange, "EXPIRED", entity.TransactionStatusFailed},
		{"orange cancelled", orange, "CANCELLED", entity.TransactionStatusCancelled},
		{"orange initiated", orange, "INITIATED", entity.TransactionStatusProcessing},
		{"card successful", card, "successful", entity.TransactionStatusSuccess},
		{"card failed", card, "failed", entity.TransactionStatusFailed},
		{"card pending", card, "pending", entity.TransactionStatusProcessing},
		{"paypal completed", paypal, "COMPLETED", entity.TransactionStatusSuccess},
		{"paypal denied", paypal, "DENIED", entity.TransactionStatusFailed},
		{"paypal voided", paypal, "VOIDED", entity.TransactionStatusCancelled},
		{"paypal created", paypal, "CREATED", entity.TransactionStatusProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.adapter.NormalizeStatus(tt.raw); got != tt.expected {
				t.Errorf("NormalizeStatus(%q) = %q, expected %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestRegistryForMethod(t *testing.T) {
	registry := NewRegistry(&utils.Config{}, zap.NewNop())

	methods := []entity.MethodName{
		entity.MethodMTNMoMo,
		entity.MethodOrangeMoney,
		entity.MethodCard,
		entity.MethodPayPal,
	}
	for _, method := range methods {
		adapter, err := registry.ForMethod(method)
		if err != nil {
			t.Fatalf("ForMethod(%s): unexpected error: %v", method, err)
		}
		if adapter.Name() != method {
			t.Errorf("ForMethod(%s) returned adapter named %s", method, adapter.Name())
		}
	}

	if _, err := registry.ForMethod("bank_transfer"); err == nil {
		t.Error("expected error for unknown method")
	}
}
