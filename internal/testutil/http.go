package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// AdminUser returns a TestUser with admin role.
func AdminUser() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "Test Admin", Email: "admin@test.com", Role: "admin"}
}

// ManagerUser returns a TestUser with manager role.
func ManagerUser() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "Test Manager", Email: "manager@test.com", Role: "manager"}
}

// MemberUser returns a TestUser with member role.
func MemberUser() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "Test Member", Email: "member@test.com", Role: "member"}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request with body marshalled as JSON.
func NewJSONRequest(method, target string, body any) *http.Request {
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		buf, _ := json.Marshal(b)
		rdr = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}

// Envelope is the decoded {success, data, error} response body.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// DecodeEnvelope parses the response body. Data is decoded into dst when
// dst is non-nil.
func (r *ResponseRecorder) DecodeEnvelope(t interface {
	Fatalf(string, ...any)
}, dst any) Envelope {
	var env Envelope
	if err := json.Unmarshal(r.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, r.Body.String())
	}
	if dst != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decode data: %v (data %s)", err, string(env.Data))
		}
	}
	return env
}

// NewSessionManager returns a session manager with a fixed test key. With
// trust set, requests without a session may act as the email they supply.
func NewSessionManager(t interface {
	Helper()
	Fatalf(string, ...any)
}, trust bool) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("clubsphere-test-session-key-0123456789", "clubsphere-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	sm.SetTrustRequestIdentity(trust)
	return sm
}
