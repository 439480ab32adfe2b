// Package stripegw implements gateway.Gateway with Stripe Checkout.
package stripegw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/clubsphere/internal/app/gateway"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Gateway talks to the Stripe API with one secret key.
type Gateway struct {
	api           *client.API
	webhookSecret string
}

// New creates a Stripe gateway. webhookSecret may be empty when webhooks are
// not used.
func New(secretKey, webhookSecret string) *Gateway {
	return &Gateway{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

// CreateCheckout opens a one-off payment session with a single line item.
func (g *Gateway) CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (gateway.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%s membership", req.ClubName)),
				},
				UnitAmount: stripe.Int64(req.AmountMinor),
			},
			Quantity: stripe.Int64(1),
		}},
		CustomerEmail:     stripe.String(req.UserEmail),
		ClientReferenceID: stripe.String(req.ClubID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(gateway.MetaUserEmail, req.UserEmail)
	params.AddMetadata(gateway.MetaClubID, req.ClubID)
	params.AddMetadata(gateway.MetaClubName, req.ClubName)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return gateway.CheckoutSession{}, err
	}
	return gateway.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// Lookup resolves a checkout session id (cs_...) or payment intent id (pi_...).
// Payment intents created by checkout are reported under their session id.
func (g *Gateway) Lookup(ctx context.Context, ref string) (gateway.PaymentStatus, error) {
	switch {
	case strings.HasPrefix(ref, "cs_"):
		params := &stripe.CheckoutSessionParams{}
		params.Context = ctx
		s, err := g.api.CheckoutSessions.Get(ref, params)
		if err != nil {
			return gateway.PaymentStatus{}, translate(err)
		}
		return fromSession(s), nil

	case strings.HasPrefix(ref, "pi_"):
		list := &stripe.CheckoutSessionListParams{PaymentIntent: stripe.String(ref)}
		list.Context = ctx
		list.Limit = stripe.Int64(1)
		list.Single = true
		it := g.api.CheckoutSessions.List(list)
		if it.Next() {
			return fromSession(it.CheckoutSession()), nil
		}
		if err := it.Err(); err != nil {
			return gateway.PaymentStatus{}, translate(err)
		}

		params := &stripe.PaymentIntentParams{}
		params.Context = ctx
		pi, err := g.api.PaymentIntents.Get(ref, params)
		if err != nil {
			return gateway.PaymentStatus{}, translate(err)
		}
		return gateway.PaymentStatus{
			Ref:         pi.ID,
			Paid:        pi.Status == stripe.PaymentIntentStatusSucceeded,
			AmountMinor: pi.AmountReceived,
			Currency:    string(pi.Currency),
			Metadata:    pi.Metadata,
		}, nil
	}
	return gateway.PaymentStatus{}, gateway.ErrNotFound
}

// ParseWebhook verifies the Stripe-Signature header and extracts the
// checkout session id from completion events.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (gateway.WebhookEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return gateway.WebhookEvent{}, fmt.Errorf("%w: %v", gateway.ErrInvalidSignature, err)
	}

	out := gateway.WebhookEvent{Type: string(ev.Type)}
	switch ev.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var s stripe.CheckoutSession
		if ev.Data == nil {
			return out, errors.New("stripegw: event has no data")
		}
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return out, fmt.Errorf("stripegw: decode checkout session: %w", err)
		}
		out.Ref = s.ID
	}
	return out, nil
}

func fromSession(s *stripe.CheckoutSession) gateway.PaymentStatus {
	return gateway.PaymentStatus{
		Ref:         s.ID,
		Paid:        s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountMinor: s.AmountTotal,
		Currency:    string(s.Currency),
		Metadata:    s.Metadata,
	}
}

func translate(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.HTTPStatusCode == http.StatusNotFound {
		return gateway.ErrNotFound
	}
	return err
}

var _ gateway.Gateway = (*Gateway)(nil)
