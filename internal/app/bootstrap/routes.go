// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/clubsphere/internal/app/eventreg"
	auditlogfeature "github.com/dalemusser/clubsphere/internal/app/features/auditlog"
	clubsfeature "github.com/dalemusser/clubsphere/internal/app/features/clubs"
	eventsfeature "github.com/dalemusser/clubsphere/internal/app/features/events"
	healthfeature "github.com/dalemusser/clubsphere/internal/app/features/health"
	homefeature "github.com/dalemusser/clubsphere/internal/app/features/home"
	membershipsfeature "github.com/dalemusser/clubsphere/internal/app/features/memberships"
	paymentsfeature "github.com/dalemusser/clubsphere/internal/app/features/payments"
	registrationsfeature "github.com/dalemusser/clubsphere/internal/app/features/registrations"
	usersfeature "github.com/dalemusser/clubsphere/internal/app/features/users"
	"github.com/dalemusser/clubsphere/internal/app/gateway"
	"github.com/dalemusser/clubsphere/internal/app/gateway/stripegw"
	"github.com/dalemusser/clubsphere/internal/app/ledger"
	"github.com/dalemusser/clubsphere/internal/app/reconcile"
	"github.com/dalemusser/clubsphere/internal/app/store/audit"
	clubstore "github.com/dalemusser/clubsphere/internal/app/store/clubs"
	eventstore "github.com/dalemusser/clubsphere/internal/app/store/events"
	userstore "github.com/dalemusser/clubsphere/internal/app/store/users"
	"github.com/dalemusser/clubsphere/internal/app/system/auditlog"
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/app/system/metrics"
	"github.com/dalemusser/clubsphere/internal/app/system/ratelimit"
	"github.com/dalemusser/clubsphere/internal/app/system/requestlog"
	"github.com/dalemusser/clubsphere/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const sessionMaxAge = 7 * 24 * time.Hour

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed, so every route mounted here can rely on a
// reachable database with its indexes in place.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, sessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Fresh user data on each request so role changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))
	sessionMgr.SetTrustRequestIdentity(appCfg.TrustRequestIdentity)

	// Shared services
	runner := txn.New(deps.MongoClient, logger)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Workflow: appCfg.AuditLog,
		Admin:    appCfg.AuditLog,
	})
	users := userstore.New(db)
	clubs := clubstore.New(db)
	events := eventstore.New(db)

	led := ledger.New(db, runner, auditLog, logger)
	regs := eventreg.New(db, led, runner, auditLog, logger)

	var gw gateway.Gateway
	if appCfg.StripeSecretKey != "" {
		gw = stripegw.New(appCfg.StripeSecretKey, appCfg.StripeWebhookSecret)
	}
	recon := reconcile.New(db, gw, led, runner, auditLog, logger, reconcile.Config{
		Currency:      appCfg.PaymentCurrency,
		ClientBaseURL: appCfg.ClientBaseURL,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestlog.Middleware(logger))

	// Loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Identity
	usersHandler := usersfeature.NewHandler(users, sessionMgr, auditLog, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	// Clubs and the membership ledger
	clubsHandler := clubsfeature.NewHandler(clubs, events, led, users, sessionMgr, auditLog, logger)
	r.Mount("/clubs", clubsfeature.Routes(clubsHandler))

	membershipsHandler := membershipsfeature.NewHandler(led, sessionMgr, logger)
	r.Mount("/memberships", membershipsfeature.Routes(membershipsHandler))

	// Event registration
	eventsHandler := eventsfeature.NewHandler(events, clubs, regs, users, sessionMgr, logger)
	r.Mount("/events", eventsfeature.Routes(eventsHandler))

	regsHandler := registrationsfeature.NewHandler(regs, sessionMgr, logger)
	r.Mount("/event-registrations", registrationsfeature.Routes(regsHandler))
	r.Mount("/manager/event-registrations", registrationsfeature.ManagerRoutes(regsHandler))

	// Payment reconciliation
	paymentsHandler := paymentsfeature.NewHandler(recon, sessionMgr, logger)
	checkoutLimiter := ratelimit.New(appCfg.CheckoutRateLimit, appCfg.CheckoutRateWindow)
	r.Mount("/create-checkout-session", paymentsfeature.CheckoutRoutes(paymentsHandler, checkoutLimiter))
	r.Mount("/verify-payment", paymentsfeature.VerifyRoutes(paymentsHandler))
	r.Mount("/payments", paymentsfeature.Routes(paymentsHandler))
	if appCfg.StripeSecretKey != "" && appCfg.StripeWebhookSecret != "" {
		r.Mount("/webhooks/stripe", paymentsfeature.WebhookRoutes(paymentsHandler))
	}

	// Admin
	auditHandler := auditlogfeature.NewHandler(audit.New(db), logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler))

	homeHandler := homefeature.NewHandler()
	r.Mount("/", homefeature.Routes(homeHandler))

	logger.Info("routes mounted",
		zap.Bool("gateway", gw != nil),
		zap.Bool("trust_request_identity", appCfg.TrustRequestIdentity))

	return r, nil
}
