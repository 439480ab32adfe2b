// Package gatewaytest provides an in-memory gateway.Gateway for tests.
package gatewaytest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dalemusser/clubsphere/internal/app/gateway"
)

// Session is a checkout the fake gateway knows about.
type Session struct {
	gateway.CheckoutRequest
	ID   string
	URL  string
	Paid bool
}

// Gateway records checkouts in memory. Set CreateErr or LookupErr to make
// the corresponding calls fail.
type Gateway struct {
	mu       sync.Mutex
	sessions map[string]*Session
	aliases  map[string]string // payment intent id -> session id
	seq      int

	Secret      string
	CreateErr   error
	LookupErr   error
	LookupCalls int
	Requests    []gateway.CheckoutRequest
}

// New returns an empty fake gateway whose webhooks are signed with "test".
func New() *Gateway {
	return &Gateway{
		sessions: map[string]*Session{},
		aliases:  map[string]string{},
		Secret:   "test",
	}
}

// CreateCheckout stores the request under a new cs_test_N id.
func (g *Gateway) CreateCheckout(_ context.Context, req gateway.CheckoutRequest) (gateway.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Requests = append(g.Requests, req)
	if g.CreateErr != nil {
		return gateway.CheckoutSession{}, g.CreateErr
	}
	g.seq++
	s := &Session{
		CheckoutRequest: req,
		ID:              fmt.Sprintf("cs_test_%d", g.seq),
	}
	s.URL = "https://checkout.test/" + s.ID
	g.sessions[s.ID] = s
	return gateway.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// AddSession registers a session directly, as if checkout happened elsewhere.
func (g *Gateway) AddSession(id string, req gateway.CheckoutRequest, paid bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id] = &Session{CheckoutRequest: req, ID: id, URL: "https://checkout.test/" + id, Paid: paid}
}

// MarkPaid flags a session as paid. When intentID is non-empty the session
// can also be looked up by that payment intent id.
func (g *Gateway) MarkPaid(sessionID, intentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.sessions[sessionID]; ok {
		s.Paid = true
	}
	if intentID != "" {
		g.aliases[intentID] = sessionID
	}
}

// Lookup reports a session by its id or an aliased payment intent id.
func (g *Gateway) Lookup(_ context.Context, ref string) (gateway.PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.LookupCalls++
	if g.LookupErr != nil {
		return gateway.PaymentStatus{}, g.LookupErr
	}
	if id, ok := g.aliases[ref]; ok {
		ref = id
	}
	s, ok := g.sessions[ref]
	if !ok {
		return gateway.PaymentStatus{}, gateway.ErrNotFound
	}
	return gateway.PaymentStatus{
		Ref:         s.ID,
		Paid:        s.Paid,
		AmountMinor: s.AmountMinor,
		Currency:    s.Currency,
		Metadata: map[string]string{
			gateway.MetaUserEmail: s.UserEmail,
			gateway.MetaClubID:    s.ClubID,
			gateway.MetaClubName:  s.ClubName,
		},
	}, nil
}

// WebhookPayload builds a payload ParseWebhook accepts.
func WebhookPayload(eventType, ref string) []byte {
	b, _ := json.Marshal(map[string]string{"type": eventType, "ref": ref})
	return b
}

// ParseWebhook accepts payloads from WebhookPayload when signature equals Secret.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (gateway.WebhookEvent, error) {
	if signature != g.Secret {
		return gateway.WebhookEvent{}, gateway.ErrInvalidSignature
	}
	var body struct {
		Type string `json:"type"`
		Ref  string `json:"ref"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return gateway.WebhookEvent{}, err
	}
	return gateway.WebhookEvent{Type: body.Type, Ref: body.Ref}, nil
}

var _ gateway.Gateway = (*Gateway)(nil)
