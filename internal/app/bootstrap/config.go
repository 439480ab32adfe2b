// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/clubsphere/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Club Sphere.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CLUBSPHERE_MONGO_URI, CLUBSPHERE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "club_sphere", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "clubsphere-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "trust_request_identity", Default: true, Desc: "Accept caller-supplied emails when no session identity exists"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the admin user (promotes/creates on startup)"},

	// Payments
	{Name: "stripe_secret_key", Default: "", Desc: "Stripe API key (blank disables checkout)"},
	{Name: "stripe_webhook_secret", Default: "", Desc: "Stripe webhook signing secret (blank disables the webhook route)"},
	{Name: "payment_currency", Default: "usd", Desc: "ISO currency code for checkout sessions"},
	{Name: "client_base_url", Default: "http://localhost:5173", Desc: "Base URL for checkout success/cancel redirects"},
	{Name: "checkout_rate_limit", Default: 10, Desc: "Checkout sessions allowed per caller per window"},
	{Name: "checkout_rate_window", Default: "1m", Desc: "Checkout rate limit window (e.g., 1m, 30s)"},

	// Audit logging settings
	{Name: "audit_log", Default: "all", Desc: "Audit event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Store deadlines
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for listings and multi-step operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for workflows and gateway calls"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// CLUBSPHERE_* environment variables and flags, merged with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CLUBSPHERE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:             appValues.String("mongo_uri"),
		MongoDatabase:        appValues.String("mongo_database"),
		MongoMaxPoolSize:     uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:     uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:           appValues.String("session_key"),
		SessionName:          appValues.String("session_name"),
		SessionDomain:        appValues.String("session_domain"),
		TrustRequestIdentity: appValues.Bool("trust_request_identity"),

		AdminEmail: strings.TrimSpace(appValues.String("admin_email")),

		StripeSecretKey:     appValues.String("stripe_secret_key"),
		StripeWebhookSecret: appValues.String("stripe_webhook_secret"),
		PaymentCurrency:     strings.ToLower(strings.TrimSpace(appValues.String("payment_currency"))),
		ClientBaseURL:       appValues.String("client_base_url"),
		CheckoutRateLimit:   appValues.Int("checkout_rate_limit"),
		CheckoutRateWindow:  appValues.Duration("checkout_rate_window", time.Minute),

		AuditLog: strings.ToLower(strings.TrimSpace(appValues.String("audit_log"))),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if !validCurrency(appCfg.PaymentCurrency) {
		return fmt.Errorf("payment_currency must be a three-letter ISO code, got %q", appCfg.PaymentCurrency)
	}
	if appCfg.CheckoutRateLimit <= 0 || appCfg.CheckoutRateWindow <= 0 {
		return fmt.Errorf("checkout_rate_limit and checkout_rate_window must be positive")
	}
	if !auditlog.IsValidMode(appCfg.AuditLog) {
		return fmt.Errorf("audit_log must be one of all, db, log, off; got %q", appCfg.AuditLog)
	}
	if appCfg.StripeSecretKey == "" {
		logger.Warn("stripe_secret_key is not set; checkout and payment verification are disabled")
	}
	return nil
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
