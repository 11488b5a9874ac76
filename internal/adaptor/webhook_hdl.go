package adaptor

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/usecase"
	"marketplace-payments/pkg/utils"

	"go.uber.org/zap"
)

// WebhookHandler receives provider confirmations. Each endpoint verifies
// whatever proof of origin its provider offers, extracts the transaction
// identifiers, and hands a normalized event to the webhook service.
//
// Response codes follow provider retry semantics: a 200 acknowledges the
// event (including events for unknown transactions, which are logged and
// dropped rather than retried forever), a 400 rejects a bad signature or
// payload, and a 500 asks the provider to redeliver after a storage failure.
type WebhookHandler struct {
	service usecase.WebhookService
	config  *utils.Config
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.WebhookService, config *utils.Config, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		config:  config,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// MTNMoMo handles PUT/POST /api/webhooks/mtn-momo. The callback body is the
// requesttopay resource; referenceId is the id we generated at initiation
// and externalId echoes our own reference.
func (h *WebhookHandler) MTNMoMo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ReferenceID string `json:"referenceId"`
		ExternalID  string `json:"externalId"`
		Status      string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.ResponseBadRequest(w, "Invalid callback body", nil)
		return
	}
	if payload.Status == "" {
		utils.ResponseBadRequest(w, "Missing status", nil)
		return
	}

	h.deliver(w, r, &usecase.WebhookEvent{
		Method:     entity.MethodMTNMoMo,
		ExternalID: payload.ReferenceID,
		Reference:  payload.ExternalID,
		RawStatus:  payload.Status,
	})
}

// OrangeMoney handles POST /api/webhooks/orange-money. Orange posts the
// notification form-encoded with the pay_token from session creation.
func (h *WebhookHandler) OrangeMoney(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.ResponseBadRequest(w, "Invalid notification body", nil)
		return
	}

	payToken := r.PostFormValue("pay_token")
	status := r.PostFormValue("status")
	if payToken == "" || status == "" {
		utils.ResponseBadRequest(w, "Missing pay_token or status", nil)
		return
	}

	h.deliver(w, r, &usecase.WebhookEvent{
		Method:     entity.MethodOrangeMoney,
		ExternalID: payToken,
		RawStatus:  status,
	})
}

// Card handles POST /api/webhooks/card. The processor sends a shared secret
// in the verif-hash header; compare in constant time.
func (h *WebhookHandler) Card(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("verif-hash")
	if subtle.ConstantTimeCompare([]byte(signature), []byte(h.config.Card.WebhookHash)) != 1 {
		h.log.Warn("Card webhook with bad verif-hash", zap.String("remote", r.RemoteAddr))
		utils.ResponseBadRequest(w, "Invalid signature", nil)
		return
	}

	var payload struct {
		Event string `json:"event"`
		Data  struct {
			TxRef  string `json:"tx_ref"`
			FlwRef string `json:"flw_ref"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.ResponseBadRequest(w, "Invalid webhook body", nil)
		return
	}
	if payload.Data.Status == "" {
		utils.ResponseBadRequest(w, "Missing charge status", nil)
		return
	}

	h.deliver(w, r, &usecase.WebhookEvent{
		Method:     entity.MethodCard,
		ExternalID: payload.Data.FlwRef,
		Reference:  payload.Data.TxRef,
		RawStatus:  payload.Data.Status,
	})
}

// PayPal handles POST /api/webhooks/paypal. The body is authenticated with
// an HMAC-SHA256 signature over the raw payload.
func (h *WebhookHandler) PayPal(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid webhook body", nil)
		return
	}

	if !h.verifyPayPalSignature(body, r.Header.Get("X-Webhook-Signature")) {
		h.log.Warn("Wallet webhook with bad signature", zap.String("remote", r.RemoteAddr))
		utils.ResponseBadRequest(w, "Invalid signature", nil)
		return
	}

	var payload struct {
		EventType string `json:"event_type"`
		Resource  struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"resource"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		utils.ResponseBadRequest(w, "Invalid webhook body", nil)
		return
	}
	if payload.Resource.ID == "" || payload.Resource.Status == "" {
		utils.ResponseBadRequest(w, "Missing order id or status", nil)
		return
	}

	h.deliver(w, r, &usecase.WebhookEvent{
		Method:     entity.MethodPayPal,
		ExternalID: payload.Resource.ID,
		RawStatus:  payload.Resource.Status,
	})
}

func (h *WebhookHandler) verifyPayPalSignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.config.PayPal.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h *WebhookHandler) deliver(w http.ResponseWriter, r *http.Request, event *usecase.WebhookEvent) {
	err := h.service.HandleEvent(r.Context(), event)
	if err == nil {
		utils.ResponseSuccess(w, "success", nil)
		return
	}

	if errors.Is(err, usecase.ErrNotFound) {
		// Acknowledge so the provider stops retrying an event we will
		// never be able to apply.
		h.log.Warn("Webhook for unknown transaction",
			zap.String("method", string(event.Method)),
			zap.String("external_id", event.ExternalID),
			zap.String("reference", event.Reference),
		)
		utils.ResponseSuccess(w, "success", nil)
		return
	}

	h.log.Error("Failed to apply webhook",
		zap.Error(err),
		zap.String("method", string(event.Method)),
		zap.String("external_id", event.ExternalID),
	)
	utils.ResponseInternalError(w, "Internal server error")
}
