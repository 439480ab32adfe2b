// Package reconcile turns gateway payments into club memberships.
//
// StartCheckout opens a hosted checkout and records a pending payment.
// VerifyPayment asks the gateway whether a reference was paid and, if so,
// activates the membership and completes the payment record. Verifying the
// same reference again reports AlreadyProcessed and changes nothing.
package reconcile

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/clubsphere/internal/app/gateway"
	"github.com/dalemusser/clubsphere/internal/app/ledger"
	clubstore "github.com/dalemusser/clubsphere/internal/app/store/clubs"
	paymentstore "github.com/dalemusser/clubsphere/internal/app/store/payments"
	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/dalemusser/clubsphere/internal/app/system/auditlog"
	"github.com/dalemusser/clubsphere/internal/app/system/metrics"
	"github.com/dalemusser/clubsphere/internal/app/system/money"
	"github.com/dalemusser/clubsphere/internal/app/system/normalize"
	"github.com/dalemusser/clubsphere/internal/app/system/txn"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Config holds checkout settings.
type Config struct {
	Currency      string
	ClientBaseURL string
}

// SuccessURL is where the gateway sends the user after paying. The gateway
// substitutes the session id placeholder.
func (c Config) SuccessURL() string {
	return strings.TrimRight(c.ClientBaseURL, "/") + "/payment-success?session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL is where the gateway sends the user after abandoning checkout.
func (c Config) CancelURL() string {
	return strings.TrimRight(c.ClientBaseURL, "/") + "/payment-cancelled"
}

// Checkout is the result of StartCheckout.
type Checkout struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// Result is the outcome of VerifyPayment.
type Result struct {
	Paid             bool               `json:"paid"`
	AlreadyProcessed bool               `json:"alreadyProcessed"`
	Payment          *models.Payment    `json:"payment,omitempty"`
	Membership       *models.Membership `json:"membership,omitempty"`
}

// Service implements payment reconciliation. gw may be nil, in which case
// gateway operations fail with an Unavailable error.
type Service struct {
	gw       gateway.Gateway
	ledger   *ledger.Service
	payments *paymentstore.Store
	clubs    *clubstore.Store
	txn      *txn.Runner
	audit    *auditlog.Logger
	log      *zap.Logger
	cfg      Config
}

// New creates the reconciliation service.
func New(db *mongo.Database, gw gateway.Gateway, led *ledger.Service, runner *txn.Runner, audit *auditlog.Logger, log *zap.Logger, cfg Config) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &Service{
		gw:       gw,
		ledger:   led,
		payments: paymentstore.New(db),
		clubs:    clubstore.New(db),
		txn:      runner,
		audit:    audit,
		log:      log,
		cfg:      cfg,
	}
}

var errGatewayDisabled = apperr.Unavailable("payment gateway is not configured")

// errCompletedElsewhere signals that a concurrent verification completed
// the payment first.
var errCompletedElsewhere = errors.New("payment completed by another verification")

// StartCheckout opens a hosted checkout for email to join clubID.
// amount is in major currency units.
func (s *Service) StartCheckout(ctx context.Context, email string, amount float64, clubID primitive.ObjectID, clubName string) (Checkout, error) {
	email = normalize.Email(email)
	if email == "" {
		return Checkout{}, apperr.Validation("userEmail is required")
	}
	minor, err := money.ToMinor(amount)
	if err != nil {
		return Checkout{}, err
	}

	club, err := s.clubs.GetByID(ctx, clubID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Checkout{}, apperr.NotFound("club not found")
	}
	if err != nil {
		return Checkout{}, err
	}
	if name := normalize.Name(clubName); name != "" {
		clubName = name
	} else {
		clubName = club.Name
	}

	if err := s.ledger.RequireJoinable(ctx, club, email); err != nil {
		return Checkout{}, err
	}
	if fee, err := money.ToMinor(club.MembershipFee); err != nil || fee != minor {
		return Checkout{}, apperr.Validation("amount must equal the club membership fee")
	}
	if s.gw == nil {
		return Checkout{}, errGatewayDisabled
	}

	sess, err := s.gw.CreateCheckout(ctx, gateway.CheckoutRequest{
		UserEmail:      email,
		ClubID:         clubID.Hex(),
		ClubName:       clubName,
		AmountMinor:    minor,
		Currency:       s.cfg.Currency,
		SuccessURL:     s.cfg.SuccessURL(),
		CancelURL:      s.cfg.CancelURL(),
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		metrics.Checkouts.WithLabelValues("gateway_error").Inc()
		return Checkout{}, apperr.Upstream("could not create checkout session", err)
	}
	metrics.Checkouts.WithLabelValues("created").Inc()

	// Verification upserts the payment, so a failed pre-create is not fatal.
	if _, err := s.payments.CreatePending(ctx, models.Payment{
		GatewayRef:  sess.ID,
		UserEmail:   email,
		ClubID:      clubID,
		ClubName:    clubName,
		Amount:      money.FromMinor(minor),
		AmountMinor: minor,
		Currency:    s.cfg.Currency,
	}); err != nil {
		s.log.Warn("pending payment not recorded",
			zap.String("gateway_ref", sess.ID),
			zap.Error(err))
	}

	s.audit.CheckoutStarted(ctx, clubID, email, sess.ID, money.Format(minor))
	return Checkout{URL: sess.URL, SessionID: sess.ID}, nil
}

// ValidRef reports whether ref looks like a checkout session or payment
// intent id.
func ValidRef(ref string) bool {
	return (strings.HasPrefix(ref, "cs_") || strings.HasPrefix(ref, "pi_")) && len(ref) > 3
}

func (s *Service) completed(ctx context.Context, ref string) (*models.Payment, error) {
	p, err := s.payments.GetByRef(ctx, ref)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentCompleted {
		return nil, nil
	}
	return &p, nil
}

// VerifyPayment reconciles the payment identified by ref.
func (s *Service) VerifyPayment(ctx context.Context, ref string) (Result, error) {
	ref = strings.TrimSpace(ref)
	if !ValidRef(ref) {
		return Result{}, apperr.Validation("invalid payment reference")
	}

	if p, err := s.completed(ctx, ref); err != nil {
		return Result{}, err
	} else if p != nil {
		metrics.Reconciliations.WithLabelValues("already_processed").Inc()
		return Result{Paid: true, AlreadyProcessed: true, Payment: p}, nil
	}

	if s.gw == nil {
		return Result{}, errGatewayDisabled
	}
	st, err := s.gw.Lookup(ctx, ref)
	if errors.Is(err, gateway.ErrNotFound) {
		metrics.Reconciliations.WithLabelValues("not_found").Inc()
		return Result{}, apperr.NotFound("payment not found")
	}
	if err != nil {
		metrics.Reconciliations.WithLabelValues("gateway_error").Inc()
		return Result{}, apperr.Upstream("could not verify payment", err)
	}

	canonical := ref
	if st.Ref != "" && st.Ref != ref {
		canonical = st.Ref
		if p, err := s.completed(ctx, canonical); err != nil {
			return Result{}, err
		} else if p != nil {
			metrics.Reconciliations.WithLabelValues("already_processed").Inc()
			return Result{Paid: true, AlreadyProcessed: true, Payment: p}, nil
		}
	}

	if !st.Paid {
		metrics.Reconciliations.WithLabelValues("unpaid").Inc()
		return Result{Paid: false}, nil
	}

	email := normalize.Email(st.Metadata[gateway.MetaUserEmail])
	clubID, idErr := primitive.ObjectIDFromHex(st.Metadata[gateway.MetaClubID])
	if email == "" || idErr != nil {
		metrics.Reconciliations.WithLabelValues("bad_metadata").Inc()
		return Result{}, apperr.Upstream("payment is missing membership details", idErr)
	}

	var (
		membership models.Membership
		payment    models.Payment
	)
	err = s.txn.Run(ctx, func(ctx context.Context) error {
		var err error
		membership, _, err = s.ledger.UpsertActiveMembership(ctx, clubID, email, canonical)
		if err != nil {
			return err
		}
		payment, err = s.payments.Complete(ctx, models.Payment{
			GatewayRef:  canonical,
			UserEmail:   email,
			ClubID:      clubID,
			ClubName:    st.Metadata[gateway.MetaClubName],
			Amount:      money.FromMinor(st.AmountMinor),
			AmountMinor: st.AmountMinor,
			Currency:    st.Currency,
		})
		if errors.Is(err, paymentstore.ErrAlreadyCompleted) {
			return errCompletedElsewhere
		}
		return err
	})
	if errors.Is(err, errCompletedElsewhere) {
		metrics.Reconciliations.WithLabelValues("already_processed").Inc()
		res := Result{Paid: true, AlreadyProcessed: true}
		if p, err := s.completed(ctx, canonical); err == nil && p != nil {
			res.Payment = p
		}
		return res, nil
	}
	if err != nil {
		metrics.Reconciliations.WithLabelValues("error").Inc()
		return Result{}, err
	}

	metrics.Reconciliations.WithLabelValues("completed").Inc()
	s.audit.PaymentCompleted(ctx, clubID, email, canonical, money.Format(st.AmountMinor))
	s.log.Info("payment reconciled",
		zap.String("gateway_ref", canonical),
		zap.String("club_id", clubID.Hex()),
		zap.String("user", email))
	return Result{Paid: true, Payment: &payment, Membership: &membership}, nil
}

// HandleWebhook verifies a gateway notification and reconciles completed
// checkouts. handled is false for event types that need no action.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (res Result, handled bool, err error) {
	if s.gw == nil {
		return Result{}, false, errGatewayDisabled
	}
	ev, err := s.gw.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			return Result{}, false, apperr.Validation("invalid webhook signature")
		}
		return Result{}, false, apperr.Validation("invalid webhook payload")
	}

	switch ev.Type {
	case gateway.EventCheckoutCompleted, gateway.EventAsyncPaymentSucceeded:
		res, err := s.VerifyPayment(ctx, ev.Ref)
		return res, true, err
	default:
		return Result{}, false, nil
	}
}

// ListPayments returns email's payments, newest first.
func (s *Service) ListPayments(ctx context.Context, email string) ([]models.Payment, error) {
	email = normalize.Email(email)
	if email == "" {
		return nil, apperr.Validation("userEmail is required")
	}
	return s.payments.ListByUser(ctx, email)
}
