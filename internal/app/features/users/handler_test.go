package users_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/clubsphere/internal/app/features/users"
	userstore "github.com/dalemusser/clubsphere/internal/app/store/users"
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/dalemusser/clubsphere/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*users.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return users.NewHandler(userstore.New(db), testutil.NewSessionManager(t, true), nil, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestServeCreate_CreatesThenReportsExisting(t *testing.T) {
	h, _ := newTestHandler(t)
	router := users.Routes(h)

	body := map[string]string{"email": "  Ann@Example.com ", "displayName": "Ann", "photoURL": "https://img.test/a.png"}

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest("POST", "/", body))
	rec.AssertStatus(t, http.StatusCreated)

	var created struct {
		User models.User `json:"user"`
	}
	env := rec.DecodeEnvelope(t, &created)
	if !env.Success {
		t.Fatalf("expected success, got error %q", env.Error)
	}
	if created.User.Email != "ann@example.com" {
		t.Errorf("email: got %q, want normalized", created.User.Email)
	}
	if created.User.Role != models.RoleMember {
		t.Errorf("role: got %q, want member", created.User.Role)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest("POST", "/", body))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "user exists")
}

func TestServeCreate_SessionBinding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "Root", "admin@club.test", models.RoleAdmin)
	fx.CreateUser(ctx, "Mia", "mgr@club.test", models.RoleManager)
	fx.CreateUser(ctx, "Leo", "mem@club.test", models.RoleMember)
	self := testutil.TestUser{ID: primitive.NewObjectID().Hex(), Email: "admin@club.test", Role: models.RoleAdmin}
	member := testutil.MemberUser()
	admin := testutil.AdminUser()

	tests := []struct {
		name       string
		trust      bool
		user       *testutil.TestUser
		email      string
		wantStatus int
		wantCookie bool
	}{
		{"trust off, anonymous admin email", false, nil, "admin@club.test", http.StatusUnauthorized, false},
		{"trust off, anonymous new email", false, nil, "new@club.test", http.StatusUnauthorized, false},
		{"trust on, anonymous admin email", true, nil, "admin@club.test", http.StatusOK, false},
		{"trust on, anonymous manager email", true, nil, "mgr@club.test", http.StatusOK, false},
		{"trust on, anonymous member email", true, nil, "mem@club.test", http.StatusOK, true},
		{"member session, other email", true, &member, "admin@club.test", http.StatusForbidden, false},
		{"admin session, other email", true, &admin, "fresh@club.test", http.StatusCreated, false},
		{"session for own email", false, &self, "admin@club.test", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := testutil.NewSessionManager(t, tt.trust)
			sm.SetUserFetcher(userstore.NewFetcher(db))
			router := users.Routes(users.NewHandler(userstore.New(db), sm, nil, zap.NewNop()))

			req := testutil.NewJSONRequest("POST", "/", map[string]string{"email": tt.email})
			if tt.user != nil {
				req = testutil.WithUser(req, *tt.user)
			}
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.wantStatus)

			cookies := rec.Result().Cookies()
			if got := len(cookies) > 0; got != tt.wantCookie {
				t.Fatalf("session cookie set = %v, want %v", got, tt.wantCookie)
			}
			if tt.user != nil {
				return
			}

			// Whatever cookie an anonymous caller got must not open admin routes.
			var reached bool
			guarded := sm.LoadSessionUser(auth.RequireRole(models.RoleAdmin)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				reached = true
			})))
			replay := testutil.NewRequest("GET", "/audit")
			for _, c := range cookies {
				replay.AddCookie(c)
			}
			guarded.ServeHTTP(testutil.NewRecorder(), replay)
			if reached {
				t.Error("anonymous sign-up opened an admin-only route")
			}
		})
	}
}

func TestServeSignOut_ExpiresCookie(t *testing.T) {
	h, _ := newTestHandler(t)
	router := users.Routes(h)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("DELETE", "/session"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "signed out")

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected an expiring session cookie")
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("cookie MaxAge: got %d, want negative", cookies[0].MaxAge)
	}
}

func TestServeCreate_Validation(t *testing.T) {
	h := users.NewHandler(nil, nil, nil, zap.NewNop())
	router := users.Routes(h)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"empty body", nil, "request body is required"},
		{"bad json", "{", "request body is not valid JSON"},
		{"missing email", map[string]string{"displayName": "x"}, "email is required"},
		{"bad email", map[string]string{"email": "not-an-email"}, "email must be a valid email address"},
		{"bad photo", map[string]string{"email": "a@x.com", "photoURL": "nope"}, "photoURL must be a valid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, testutil.NewJSONRequest("POST", "/", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
			if env := rec.DecodeEnvelope(t, nil); env.Error != tt.want {
				t.Errorf("error: got %q, want %q", env.Error, tt.want)
			}
		})
	}
}

func TestServeRole(t *testing.T) {
	h, fx := newTestHandler(t)
	router := users.Routes(h)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "Mia", "mia@example.com", models.RoleManager)

	tests := []struct {
		email string
		want  string
	}{
		{"mia@example.com", models.RoleManager},
		{"MIA@example.com", models.RoleManager},
		{"nobody@example.com", models.RoleMember},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, testutil.NewRequest("GET", "/"+tt.email+"/role"))
			rec.AssertStatus(t, http.StatusOK)

			var got struct {
				Role string `json:"role"`
			}
			rec.DecodeEnvelope(t, &got)
			if got.Role != tt.want {
				t.Errorf("role: got %q, want %q", got.Role, tt.want)
			}
		})
	}
}

func TestServeSetRole(t *testing.T) {
	h, fx := newTestHandler(t)
	router := users.Routes(h)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "Leo", "leo@example.com", models.RoleMember)
	path := "/" + u.ID.Hex() + "/role"

	t.Run("admin promotes", func(t *testing.T) {
		rec := testutil.NewRecorder()
		req := testutil.WithUser(testutil.NewJSONRequest("PATCH", path, map[string]string{"role": "Manager"}), testutil.AdminUser())
		router.ServeHTTP(rec, req)
		rec.AssertStatus(t, http.StatusOK)

		role, err := userstore.New(fx.DB()).RoleByEmail(ctx, "leo@example.com")
		if err != nil {
			t.Fatalf("RoleByEmail: %v", err)
		}
		if role != models.RoleManager {
			t.Errorf("role: got %q, want manager", role)
		}
	})

	t.Run("member forbidden", func(t *testing.T) {
		rec := testutil.NewRecorder()
		req := testutil.WithUser(testutil.NewJSONRequest("PATCH", path, map[string]string{"role": "admin"}), testutil.MemberUser())
		router.ServeHTTP(rec, req)
		rec.AssertStatus(t, http.StatusForbidden)
	})

	t.Run("anonymous unauthorized", func(t *testing.T) {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.NewJSONRequest("PATCH", path, map[string]string{"role": "admin"}))
		rec.AssertStatus(t, http.StatusUnauthorized)
	})

	t.Run("invalid role", func(t *testing.T) {
		rec := testutil.NewRecorder()
		req := testutil.WithUser(testutil.NewJSONRequest("PATCH", path, map[string]string{"role": "owner"}), testutil.AdminUser())
		router.ServeHTTP(rec, req)
		rec.AssertStatus(t, http.StatusBadRequest)
		rec.AssertContains(t, "role must be one of member, manager, admin")
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := testutil.NewRecorder()
		req := testutil.WithUser(testutil.NewJSONRequest("PATCH", "/"+primitive.NewObjectID().Hex()+"/role", map[string]string{"role": "admin"}), testutil.AdminUser())
		router.ServeHTTP(rec, req)
		rec.AssertStatus(t, http.StatusNotFound)
	})
}

type brokenStore struct{}

func (brokenStore) CreateIfAbsent(context.Context, models.User) (models.User, bool, error) {
	return models.User{}, false, errors.New("connection reset")
}
func (brokenStore) RoleByEmail(context.Context, string) (string, error) {
	return "", errors.New("connection reset")
}
func (brokenStore) SetRole(context.Context, primitive.ObjectID, string) error {
	return errors.New("connection reset")
}

func TestStoreFailuresAreInternal(t *testing.T) {
	router := users.Routes(users.NewHandler(brokenStore{}, nil, nil, zap.NewNop()))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/a@x.com/role"))
	rec.AssertStatus(t, http.StatusInternalServerError)
	if env := rec.DecodeEnvelope(t, nil); env.Error == "connection reset" {
		t.Error("store error leaked to the caller")
	}
}
