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

type PayoutHandler struct {
	service usecase.PayoutService
	log     *zap.Logger
}

func NewPayoutHandler(service usecase.PayoutService, log *zap.Logger) *PayoutHandler {
	return &PayoutHandler{
		service: service,
		log:     log.With(zap.String("handler", "payout")),
	}
}

// Create handles POST /api/payouts (protected). The service branches on the
// actor's role: admin payouts settle immediately, others wait pending.
func (h *PayoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	role, _ := utils.GetRoleFromContext(r.Context())

	var req request.CreatePayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	actor := &entity.User{Role: entity.UserRole(role)}
	actor.ID = userID

	payout, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create payout")
		return
	}

	utils.ResponseCreated(w, "success", response.NewPayoutResponse(payout))
}

// GetByID handles GET /api/payouts/{id} (protected)
func (h *PayoutHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	role, _ := utils.GetRoleFromContext(r.Context())

	payoutID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid payout ID", nil)
		return
	}

	payout, err := h.service.GetByID(r.Context(), userID, entity.UserRole(role), payoutID)
	if err != nil {
		handleServiceError(w, h.log, err, "get payout")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewPayoutResponse(payout))
}

// List handles GET /api/payouts (protected, payouts the user received or created)
func (h *PayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	page := utils.ParseInt(query.Get("page"), 1)
	limit := utils.ParseInt(query.Get("per_page"), 10)

	payouts, total, err := h.service.ListByUser(r.Context(), userID, page, limit)
	if err != nil {
		handleServiceError(w, h.log, err, "list payouts")
		return
	}

	utils.ResponseSuccess(w, "success", response.ListResponse{
		Items: response.NewPayoutListResponse(payouts),
		Meta: response.Meta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: utils.CalculateTotalPages(total, limit),
		},
	})
}

// ==================== ADMIN METHODS ====================

// ListAll handles GET /api/admin/payouts (admin only)
func (h *PayoutHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := utils.ParseInt(query.Get("page"), 1)
	limit := utils.ParseInt(query.Get("per_page"), 10)

	payouts, total, err := h.service.ListAll(r.Context(), page, limit)
	if err != nil {
		handleServiceError(w, h.log, err, "list all payouts")
		return
	}

	utils.ResponseSuccess(w, "success", response.ListResponse{
		Items: response.NewPayoutListResponse(payouts),
		Meta: response.Meta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: utils.CalculateTotalPages(total, limit),
		},
	})
}

// MarkPaid handles PUT /api/admin/payouts/{id}/pay (admin only)
func (h *PayoutHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	adminID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	payoutID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid payout ID", nil)
		return
	}

	payout, err := h.service.MarkPaid(r.Context(), adminID, payoutID)
	if err != nil {
		handleServiceError(w, h.log, err, "mark payout paid")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewPayoutResponse(payout))
}
