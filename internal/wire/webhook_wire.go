package wire

import (
	"marketplace-payments/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// Webhook endpoints are unauthenticated HTTP-wise; each handler verifies
// the provider's own proof of origin instead.
func wireWebhook(r chi.Router, webhookHandler *adaptor.WebhookHandler) {
	r.Route("/api/webhooks", func(r chi.Router) {
		// MTN delivers callbacks with PUT, some relays use POST.
		r.Put("/mtn-momo", webhookHandler.MTNMoMo)
		r.Post("/mtn-momo", webhookHandler.MTNMoMo)

		r.Post("/orange-money", webhookHandler.OrangeMoney)
		r.Post("/card", webhookHandler.Card)
		r.Post("/paypal", webhookHandler.PayPal)
	})
}
