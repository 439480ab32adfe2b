// Package gateway defines the payment gateway the reconciliation workflow
// talks to. The Stripe implementation lives in stripegw; gatewaytest has an
// in-memory one for tests.
package gateway

import (
	"context"
	"errors"
)

// Metadata keys attached to every checkout session.
const (
	MetaUserEmail = "userEmail"
	MetaClubID    = "clubId"
	MetaClubName  = "clubName"
)

// Webhook event types the application acts on.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

var (
	// ErrNotFound is returned by Lookup when the gateway has no such payment.
	ErrNotFound = errors.New("gateway: payment not found")
	// ErrInvalidSignature is returned by ParseWebhook for unsigned or tampered payloads.
	ErrInvalidSignature = errors.New("gateway: invalid webhook signature")
)

// CheckoutRequest describes a hosted checkout for one club membership.
type CheckoutRequest struct {
	UserEmail      string
	ClubID         string
	ClubName       string
	AmountMinor    int64
	Currency       string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

// CheckoutSession is the gateway's answer to CheckoutRequest.
type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentStatus is the gateway's authoritative view of a payment.
type PaymentStatus struct {
	// Ref is the canonical reference: the checkout session id when the
	// payment came through checkout, otherwise the reference looked up.
	Ref         string
	Paid        bool
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

// WebhookEvent is a verified gateway notification.
type WebhookEvent struct {
	Type string
	Ref  string
}

// Gateway is a hosted payment provider.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	Lookup(ctx context.Context, ref string) (PaymentStatus, error)
	ParseWebhook(payload []byte, signature string) (WebhookEvent, error)
}
