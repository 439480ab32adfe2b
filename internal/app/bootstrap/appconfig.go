// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS. Everything the
// club workflows need lives here and is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: clubsphere-session)
	SessionDomain string // Cookie domain (blank means current host)

	// TrustRequestIdentity lets callers without a session act as the email
	// they supply in the request.
	TrustRequestIdentity bool

	// AdminEmail is created or promoted to admin on startup.
	AdminEmail string

	// Payment gateway
	StripeSecretKey     string // blank disables checkout and verification
	StripeWebhookSecret string // blank leaves the webhook route unmounted
	PaymentCurrency     string
	ClientBaseURL       string // base for checkout success/cancel redirects

	CheckoutRateLimit  int
	CheckoutRateWindow time.Duration

	// AuditLog is the audit destination: all, db, log, or off.
	AuditLog string

	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
