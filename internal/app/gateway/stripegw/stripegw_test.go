package stripegw

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/clubsphere/internal/app/gateway"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testSecret = "whsec_test_secret"

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testSecret,
	})
	return sp.Header, sp.Payload
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	g := New("sk_test_unused", testSecret)
	header, body := signed(t, `{"id":"evt_1","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_test_abc","object":"checkout.session","payment_status":"paid"}}}`)

	ev, err := g.ParseWebhook(body, header)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.Type != gateway.EventCheckoutCompleted {
		t.Errorf("Type = %q", ev.Type)
	}
	if ev.Ref != "cs_test_abc" {
		t.Errorf("Ref = %q, want cs_test_abc", ev.Ref)
	}
}

func TestParseWebhook_OtherEventHasNoRef(t *testing.T) {
	g := New("sk_test_unused", testSecret)
	header, body := signed(t, `{"id":"evt_2","object":"event","type":"customer.created",
		"data":{"object":{"id":"cus_1","object":"customer"}}}`)

	ev, err := g.ParseWebhook(body, header)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.Ref != "" {
		t.Errorf("Ref = %q, want empty", ev.Ref)
	}
}

func TestParseWebhook_BadSignature(t *testing.T) {
	g := New("sk_test_unused", testSecret)
	_, body := signed(t, `{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	_, err := g.ParseWebhook(body, "t=1,v1=deadbeef")
	if !errors.Is(err, gateway.ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestLookup_UnknownPrefix(t *testing.T) {
	g := New("sk_test_unused", "")
	_, err := g.Lookup(context.Background(), "ch_123")
	if !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFromSession(t *testing.T) {
	s := &stripe.CheckoutSession{
		ID:            "cs_test_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   1000,
		Currency:      stripe.Currency("usd"),
		Metadata:      map[string]string{gateway.MetaUserEmail: "a@x.com"},
	}
	st := fromSession(s)
	if !st.Paid || st.AmountMinor != 1000 || st.Currency != "usd" || st.Ref != "cs_test_1" {
		t.Errorf("status = %+v", st)
	}

	s.PaymentStatus = "unpaid"
	if fromSession(s).Paid {
		t.Error("unpaid session reported as paid")
	}
}

func TestTranslate(t *testing.T) {
	nf := &stripe.Error{HTTPStatusCode: 404}
	if !errors.Is(translate(nf), gateway.ErrNotFound) {
		t.Error("404 should translate to ErrNotFound")
	}
	other := &stripe.Error{HTTPStatusCode: 500}
	if errors.Is(translate(other), gateway.ErrNotFound) {
		t.Error("500 should not translate to ErrNotFound")
	}
}
