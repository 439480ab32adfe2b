package payments

import (
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxWebhookBytes bounds webhook payloads.
const maxWebhookBytes = 64 << 10

// ServeVerifyQuery handles GET /verify-payment?session_id=.
func (h *Handler) ServeVerifyQuery(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, r.URL.Query().Get("session_id"))
}

// ServeVerifyRef handles PATCH /verify-payment/{ref}.
func (h *Handler) ServeVerifyRef(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, chi.URLParam(r, "ref"))
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, ref string) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		jsonresp.Error(w, h.Log, "verify payment", apperr.Validation("session_id is required"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "verify payment")
	defer cancel()

	res, err := h.Payments.VerifyPayment(ctx, ref)
	if err != nil {
		jsonresp.Error(w, h.Log, "verify payment", err)
		return
	}
	jsonresp.OK(w, res)
}

// ServeHistory handles GET /payments?userEmail=.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	email, err := h.Sessions.ActingEmail(r, "userEmail", r.URL.Query().Get("userEmail"))
	if err != nil {
		jsonresp.Error(w, h.Log, "payment history", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "payment history")
	defer cancel()

	list, err := h.Payments.ListPayments(ctx, email)
	if err != nil {
		jsonresp.Error(w, h.Log, "payment history", err)
		return
	}
	if list == nil {
		list = []models.Payment{}
	}
	jsonresp.OK(w, list)
}

type webhookResponse struct {
	Received bool `json:"received"`
	Handled  bool `json:"handled"`
}

// ServeWebhook handles POST /webhooks/stripe. Failures other than a bad
// signature return 5xx so the gateway retries delivery.
func (h *Handler) ServeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "could not read webhook body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "payment webhook")
	defer cancel()

	res, handled, err := h.Payments.HandleWebhook(ctx, payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		jsonresp.Error(w, h.Log, "payment webhook", err)
		return
	}
	if handled {
		h.Log.Info("payment webhook processed",
			zap.Bool("paid", res.Paid),
			zap.Bool("already_processed", res.AlreadyProcessed))
	}
	jsonresp.OK(w, webhookResponse{Received: true, Handled: handled})
}
