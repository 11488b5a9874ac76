package adaptor

import (
	"encoding/json"
	"net/http"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/dto/request"
	"marketplace-payments/internal/dto/response"
	"marketplace-payments/internal/usecase"
	"marketplace-payments/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	service  usecase.TransactionService
	webhooks usecase.WebhookService
	log      *zap.Logger
}

func NewTransactionHandler(service usecase.TransactionService, webhooks usecase.WebhookService, log *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		service:  service,
		webhooks: webhooks,
		log:      log.With(zap.String("handler", "transaction")),
	}
}

// Create handles POST /api/transactions (protected)
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	txn, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create transaction")
		return
	}

	utils.ResponseCreated(w, "success", response.NewTransactionResponse(txn))
}

// Initiate handles POST /api/transactions/{id}/initiate (protected)
func (h *TransactionHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	txnID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid transaction ID", nil)
		return
	}

	txn, err := h.service.Initiate(r.Context(), userID, txnID)
	if err != nil {
		handleServiceError(w, h.log, err, "initiate transaction")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewTransactionResponse(txn))
}

// Cancel handles POST /api/transactions/{id}/cancel (protected)
func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	txnID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid transaction ID", nil)
		return
	}

	txn, err := h.service.Cancel(r.Context(), userID, txnID)
	if err != nil {
		handleServiceError(w, h.log, err, "cancel transaction")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewTransactionResponse(txn))
}

// GetByID handles GET /api/transactions/{id} (protected)
func (h *TransactionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	role, _ := utils.GetRoleFromContext(r.Context())

	txnID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid transaction ID", nil)
		return
	}

	txn, receipt, err := h.service.GetByID(r.Context(), userID, entity.UserRole(role), txnID)
	if err != nil {
		handleServiceError(w, h.log, err, "get transaction")
		return
	}

	data := struct {
		response.TransactionResponse
		Receipt *response.ReceiptResponse `json:"receipt,omitempty"`
	}{TransactionResponse: response.NewTransactionResponse(txn)}
	if receipt != nil {
		receiptResp := response.NewReceiptResponse(receipt)
		data.Receipt = &receiptResp
	}

	utils.ResponseSuccess(w, "success", data)
}

// List handles GET /api/transactions (protected, own history)
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	page := utils.ParseInt(query.Get("page"), 1)
	limit := utils.ParseInt(query.Get("per_page"), 10)

	txns, total, err := h.service.ListByUser(r.Context(), userID, page, limit)
	if err != nil {
		handleServiceError(w, h.log, err, "list transactions")
		return
	}

	utils.ResponseSuccess(w, "success", response.ListResponse{
		Items: response.NewTransactionListResponse(txns),
		Meta: response.Meta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: utils.CalculateTotalPages(total, limit),
		},
	})
}

// ListMethods handles GET /api/payment-methods (public)
func (h *TransactionHandler) ListMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.ListMethods(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "list payment methods")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewPaymentMethodListResponse(methods))
}

// ==================== ADMIN METHODS ====================

// ListAll handles GET /api/admin/transactions (admin only)
func (h *TransactionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := utils.ParseInt(query.Get("page"), 1)
	limit := utils.ParseInt(query.Get("per_page"), 10)

	txns, total, err := h.service.ListAll(r.Context(), page, limit)
	if err != nil {
		handleServiceError(w, h.log, err, "list all transactions")
		return
	}

	utils.ResponseSuccess(w, "success", response.ListResponse{
		Items: response.NewTransactionListResponse(txns),
		Meta: response.Meta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: utils.CalculateTotalPages(total, limit),
		},
	})
}

// Reconcile handles POST /api/admin/transactions/{id}/reconcile (admin only)
func (h *TransactionHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	txnID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid transaction ID", nil)
		return
	}

	txn, err := h.webhooks.Reconcile(r.Context(), txnID)
	if err != nil {
		handleServiceError(w, h.log, err, "reconcile transaction")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewTransactionResponse(txn))
}
