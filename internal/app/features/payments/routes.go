package payments

import (
	"github.com/dalemusser/clubsphere/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// CheckoutRoutes mounts checkout creation (typically under
// "/create-checkout-session"), throttled per caller when limiter is set.
func CheckoutRoutes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	if limiter != nil {
		r.Use(limiter.KeyedMiddleware(CallerKey))
	}
	r.Post("/", h.ServeCreateCheckout)
	return r
}

// VerifyRoutes mounts payment verification (typically under "/verify-payment").
func VerifyRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeVerifyQuery)
	r.Patch("/{ref}", h.ServeVerifyRef)
	return r
}

// Routes mounts payment history (typically under "/payments").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeHistory)
	return r
}

// WebhookRoutes mounts the gateway webhook (typically under "/webhooks/stripe").
func WebhookRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeWebhook)
	return r
}
