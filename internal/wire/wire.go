package wire

import (
	"net/http"

	"marketplace-payments/internal/adaptor"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/provider"
	"marketplace-payments/internal/usecase"
	"marketplace-payments/pkg/middleware"
	"marketplace-payments/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type App struct {
	Router *chi.Mux
}

// Wiring assembles providers, services, handlers and routes.
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger) *App {
	providers := provider.NewRegistry(config, logger)
	notifier := usecase.NewLogNotifier(logger)
	service := usecase.NewService(repo, providers, notifier, config.Rules, logger)
	handler := adaptor.NewHandler(service, config, logger)

	router := setupRouter(handler, repo, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireAuth(r, handler.Auth, repo, logger)
	wireTransaction(r, handler.Transaction, repo, logger)
	wireBooking(r, handler.Booking, repo, logger)
	wirePayout(r, handler.Payout, repo, logger)
	wireWebhook(r, handler.Webhook)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
