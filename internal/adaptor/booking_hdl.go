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

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// Create handles POST /api/bookings (protected)
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "success", response.NewBookingResponse(booking))
}

// GetByID handles GET /api/bookings/{id} (protected)
func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	role, _ := utils.GetRoleFromContext(r.Context())

	bookingID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	booking, err := h.service.GetByID(r.Context(), userID, entity.UserRole(role), bookingID)
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", response.NewBookingResponse(booking))
}

// List handles GET /api/bookings (protected, own history)
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	page := utils.ParseInt(query.Get("page"), 1)
	limit := utils.ParseInt(query.Get("per_page"), 10)

	bookings, total, err := h.service.ListByUser(r.Context(), userID, page, limit)
	if err != nil {
		handleServiceError(w, h.log, err, "list bookings")
		return
	}

	utils.ResponseSuccess(w, "success", response.ListResponse{
		Items: response.NewBookingListResponse(bookings),
		Meta: response.Meta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: utils.CalculateTotalPages(total, limit),
		},
	})
}
