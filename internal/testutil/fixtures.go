package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it repeatedly on the same request accumulates parameters.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		Email:         email,
		DisplayName:   name,
		DisplayNameCI: text.Fold(name),
		PhotoURL:      "https://img.test/" + email + ".png",
		Role:          role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateClub creates a club with the given status, manager, and fee.
// The members array and counter start empty.
func (f *Fixtures) CreateClub(ctx context.Context, name, managerEmail, status string, fee float64) models.Club {
	f.t.Helper()

	now := time.Now().UTC()
	club := models.Club{
		ID:            primitive.NewObjectID(),
		Name:          name,
		NameCI:        text.Fold(name),
		Description:   "Test club description",
		Category:      "Hobby",
		Location:      "Test City",
		ManagerEmail:  managerEmail,
		Status:        status,
		Members:       []string{},
		MembershipFee: fee,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("clubs").InsertOne(ctx, club); err != nil {
		f.t.Fatalf("failed to create test club: %v", err)
	}
	return club
}

// CreateEvent creates an event for the club. maxAttendees of 0 is unlimited.
func (f *Fixtures) CreateEvent(ctx context.Context, clubID primitive.ObjectID, title string, maxAttendees int) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	ev := models.Event{
		ID:           primitive.NewObjectID(),
		ClubID:       clubID,
		Title:        title,
		Description:  "Test event description",
		Date:         now.Add(7 * 24 * time.Hour),
		Location:     "Test Hall",
		Attendees:    []string{},
		MaxAttendees: maxAttendees,
		CreatedBy:    "manager@test.com",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("events").InsertOne(ctx, ev); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return ev
}

// CreateMembership inserts a membership record directly. It does not touch
// the club's member array or counter.
func (f *Fixtures) CreateMembership(ctx context.Context, clubID primitive.ObjectID, email, status string) models.Membership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Membership{
		ID:        primitive.NewObjectID(),
		ClubID:    clubID,
		UserEmail: email,
		Status:    status,
		JoinedAt:  now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}
