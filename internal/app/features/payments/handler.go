// Package payments serves checkout creation, payment verification, payment
// history, and the gateway webhook.
package payments

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubsphere/internal/app/reconcile"
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Reconciler is the payment reconciliation service.
type Reconciler interface {
	StartCheckout(ctx context.Context, email string, amount float64, clubID primitive.ObjectID, clubName string) (reconcile.Checkout, error)
	VerifyPayment(ctx context.Context, ref string) (reconcile.Result, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (reconcile.Result, bool, error)
	ListPayments(ctx context.Context, email string) ([]models.Payment, error)
}

// Handler serves the payment endpoints.
type Handler struct {
	Payments Reconciler
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

func NewHandler(payments Reconciler, sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Payments: payments, Sessions: sessions, Log: logger}
}

// CallerKey keys checkout throttling by the signed-in email, falling back
// to the client address for anonymous callers.
func CallerKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.Email
	}
	return ""
}
