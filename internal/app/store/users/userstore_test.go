package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/clubsphere/internal/app/store/users"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/dalemusser/clubsphere/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateIfAbsent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, isNew, err := store.CreateIfAbsent(ctx, models.User{
		Email:       "  Ann@Example.com ",
		DisplayName: " Ann Lee ",
	})
	if err != nil {
		t.Fatalf("CreateIfAbsent failed: %v", err)
	}
	if !isNew {
		t.Error("expected first call to create the user")
	}
	if created.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "ann@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	if created.DisplayName != "Ann Lee" || created.DisplayNameCI != "ann lee" {
		t.Errorf("display name = %q / %q", created.DisplayName, created.DisplayNameCI)
	}
	if created.Role != models.RoleMember {
		t.Errorf("expected default role member, got %q", created.Role)
	}

	again, isNew, err := store.CreateIfAbsent(ctx, models.User{Email: "ann@example.com", DisplayName: "Someone Else"})
	if err != nil {
		t.Fatalf("second CreateIfAbsent failed: %v", err)
	}
	if isNew {
		t.Error("expected second call to find the existing user")
	}
	if again.ID != created.ID || again.DisplayName != "Ann Lee" {
		t.Errorf("expected existing user back, got %+v", again)
	}
}

func TestStore_CreateIfAbsent_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := store.CreateIfAbsent(ctx, models.User{Email: "x@example.com", Role: "superadmin"}); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestStore_RoleByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Manager", "mgr@example.com", models.RoleManager)

	tests := []struct {
		email string
		want  string
	}{
		{"mgr@example.com", models.RoleManager},
		{" MGR@example.com", models.RoleManager},
		{"unknown@example.com", models.RoleMember},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got, err := store.RoleByEmail(ctx, tt.email)
			if err != nil {
				t.Fatalf("RoleByEmail: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStore_SetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Member", "m@example.com", models.RoleMember)

	if err := store.SetRole(ctx, u.ID, " Manager "); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Role != models.RoleManager {
		t.Errorf("expected manager, got %q", got.Role)
	}

	if err := store.SetRole(ctx, u.ID, "owner"); err == nil {
		t.Error("expected error for invalid role")
	}
	if err := store.SetRole(ctx, primitive.NewObjectID(), models.RoleAdmin); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments for unknown user, got %v", err)
	}
}

func TestStore_EnsureAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	changed, err := store.EnsureAdmin(ctx, "Boss@Example.com")
	if err != nil || !changed {
		t.Fatalf("first EnsureAdmin: changed=%v err=%v", changed, err)
	}
	changed, err = store.EnsureAdmin(ctx, "boss@example.com")
	if err != nil || changed {
		t.Fatalf("repeat EnsureAdmin: changed=%v err=%v", changed, err)
	}

	u, err := store.GetByEmail(ctx, "boss@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected admin, got %q", u.Role)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Ann", "ann@example.com", models.RoleManager)
	f := userstore.NewFetcher(db)

	got, err := f.FetchUser(ctx, "ANN@example.com")
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if got == nil || got.ID != u.ID.Hex() || got.Role != models.RoleManager || got.Name != "Ann" {
		t.Errorf("unexpected session user %+v", got)
	}

	missing, err := f.FetchUser(ctx, "ghost@example.com")
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for unknown user, got (%v, %v)", missing, err)
	}
}
