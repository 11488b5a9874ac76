package adaptor

import (
	"errors"
	"net/http"

	"marketplace-payments/internal/provider"
	"marketplace-payments/internal/usecase"
	"marketplace-payments/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth        *AuthHandler
	Transaction *TransactionHandler
	Booking     *BookingHandler
	Payout      *PayoutHandler
	Webhook     *WebhookHandler
}

func NewHandler(service *usecase.Service, config *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(service.Auth, log),
		Transaction: NewTransactionHandler(service.Transaction, service.Webhook, log),
		Booking:     NewBookingHandler(service.Booking, log),
		Payout:      NewPayoutHandler(service.Payout, log),
		Webhook:     NewWebhookHandler(service.Webhook, config, log),
	}
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
// Every handler funnels its service errors through here.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var validationErr *usecase.ValidationError
	var processedErr *usecase.AlreadyProcessedError
	var businessErr *provider.BusinessError
	var transportErr *provider.TransportError

	switch {
	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, "Resource not found")

	case errors.Is(err, usecase.ErrUnauthorized):
		log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, "Invalid credentials")

	case errors.As(err, &validationErr):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, validationErr.Message, validationErr.Fields)

	case errors.As(err, &processedErr):
		log.Warn(operation+" failed - already processed", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.As(err, &businessErr):
		log.Warn(operation+" declined by provider", zap.Error(err))
		utils.ResponseUnprocessable(w, businessErr.Message, map[string]string{
			"provider": businessErr.Provider,
			"code":     businessErr.Code,
		})

	case errors.As(err, &transportErr):
		log.Error(operation+" failed - provider unreachable", zap.Error(err))
		utils.ResponseJSON(w, http.StatusBadGateway, false,
			"Payment provider is unreachable, try again later", nil, nil)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
