package bootstrap

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/clubsphere/internal/app/features/home"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/dalemusser/clubsphere/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "club_sphere",
		SessionKey:         "clubsphere-test-session-key-0123456789",
		SessionName:        "clubsphere-session",
		PaymentCurrency:    "usd",
		ClientBaseURL:      "http://localhost:5173",
		CheckoutRateLimit:  10,
		CheckoutRateWindow: time.Minute,
		AuditLog:           "all",

		TrustRequestIdentity: true,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"bad uri", func(c *AppConfig) { c.MongoURI = "postgres://nope" }, "invalid MongoDB URI"},
		{"no database", func(c *AppConfig) { c.MongoDatabase = "" }, "mongo_database"},
		{"long currency", func(c *AppConfig) { c.PaymentCurrency = "usdx" }, "payment_currency"},
		{"numeric currency", func(c *AppConfig) { c.PaymentCurrency = "u5d" }, "payment_currency"},
		{"zero rate limit", func(c *AppConfig) { c.CheckoutRateLimit = 0 }, "checkout_rate_limit"},
		{"zero window", func(c *AppConfig) { c.CheckoutRateWindow = 0 }, "checkout_rate_limit"},
		{"bad audit mode", func(c *AppConfig) { c.AuditLog = "everything" }, "audit_log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "Admin@Test.com", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "admin@test.com"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", user.Role)
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	existing := models.User{
		ID:            primitive.NewObjectID(),
		Email:         "existing@test.com",
		DisplayName:   "Existing User",
		DisplayNameCI: text.Fold("Existing User"),
		Role:          models.RoleManager,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := db.Collection("users").InsertOne(ctx, existing); err != nil {
		t.Fatalf("failed to create existing user: %v", err)
	}

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, existing.Email, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}
	// Second run is a no-op.
	if err := ensureAdmin(ctx, deps, existing.Email, testLogger()); err != nil {
		t.Fatalf("ensureAdmin (repeat) failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&user); err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", user.Role)
	}
	if user.DisplayName != "Existing User" {
		t.Errorf("display name changed to %q", user.DisplayName)
	}
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": existing.Email})
	if err != nil || n != 1 {
		t.Errorf("expected exactly one user, got %d (%v)", n, err)
	}
}

func TestBuildHandler_Routes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validAppConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/", http.StatusOK},
		{"GET", "/health", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/users/nobody@test.com/role", http.StatusOK},
		{"GET", "/clubs/" + primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"GET", "/audit", http.StatusUnauthorized},
		// No gateway key: checkout is unavailable and the webhook is not mounted.
		{"POST", "/webhooks/stripe", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeHTTP(rec, testutil.NewRequest(tt.method, tt.path))
			rec.AssertStatus(t, tt.want)
		})
	}

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest("GET", "/"))
	if got := strings.TrimSpace(rec.Body.String()); got != home.Banner {
		t.Errorf("root body = %q, want %q", got, home.Banner)
	}
}

func TestBuildHandler_CheckoutWithoutGateway(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	club := testutil.NewFixtures(t, db).CreateClub(ctx, "C1", "mgr@x.com", models.ClubActive, 10)

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validAppConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewJSONRequest("POST", "/create-checkout-session", map[string]any{
		"userEmail": "a@x.com",
		"amount":    10,
		"clubId":    club.ID.Hex(),
		"clubName":  "C1",
	}))
	rec.AssertStatus(t, http.StatusServiceUnavailable)
}
