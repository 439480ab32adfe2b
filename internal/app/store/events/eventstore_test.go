package eventstore_test

import (
	"errors"
	"testing"
	"time"

	eventstore "github.com/dalemusser/clubsphere/internal/app/store/events"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/dalemusser/clubsphere/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_ForcesFree(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	club := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Event{
		ClubID:    club,
		Title:     " Spring Open ",
		Date:      time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC),
		IsPaid:    true,
		Fee:       25,
		CreatedBy: "MGR@x.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.IsPaid || created.Fee != 0 {
		t.Errorf("expected free event, got isPaid=%v fee=%v", created.IsPaid, created.Fee)
	}
	if created.Title != "Spring Open" || created.CreatedBy != "mgr@x.com" {
		t.Errorf("unexpected normalization: %q / %q", created.Title, created.CreatedBy)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AttendeeCount != 0 || len(got.Attendees) != 0 {
		t.Errorf("expected no attendees, got %+v", got)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListByClubAndByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	club := primitive.NewObjectID()
	late, _ := store.Create(ctx, models.Event{ClubID: club, Title: "Late", Date: time.Now().Add(48 * time.Hour)})
	early, _ := store.Create(ctx, models.Event{ClubID: club, Title: "Early", Date: time.Now().Add(24 * time.Hour)})
	other, _ := store.Create(ctx, models.Event{ClubID: primitive.NewObjectID(), Title: "Elsewhere", Date: time.Now()})

	events, err := store.ListByClub(ctx, club)
	if err != nil {
		t.Fatalf("ListByClub: %v", err)
	}
	if len(events) != 2 || events[0].ID != early.ID || events[1].ID != late.ID {
		t.Fatalf("expected [Early Late], got %+v", events)
	}

	none, err := store.ListByClub(ctx, primitive.NewObjectID())
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v (%v)", none, err)
	}

	byID, err := store.ByIDs(ctx, []primitive.ObjectID{early.ID, other.ID})
	if err != nil {
		t.Fatalf("ByIDs: %v", err)
	}
	if len(byID) != 2 || byID[other.ID].Title != "Elsewhere" {
		t.Errorf("unexpected ByIDs result %v", byID)
	}
}

func TestStore_Attendees(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev, err := store.Create(ctx, models.Event{ClubID: primitive.NewObjectID(), Title: "Meetup", Date: time.Now()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if added, err := store.AddAttendee(ctx, ev.ID, "a@x.com"); err != nil || !added {
		t.Fatalf("AddAttendee: added=%v err=%v", added, err)
	}
	if added, err := store.AddAttendee(ctx, ev.ID, "a@x.com"); err != nil || added {
		t.Fatalf("duplicate AddAttendee: added=%v err=%v", added, err)
	}
	got, _ := store.GetByID(ctx, ev.ID)
	if got.AttendeeCount != 1 || len(got.Attendees) != 1 {
		t.Errorf("expected one attendee, got %+v", got)
	}

	if removed, err := store.RemoveAttendee(ctx, ev.ID, "a@x.com"); err != nil || !removed {
		t.Fatalf("RemoveAttendee: removed=%v err=%v", removed, err)
	}
	if removed, err := store.RemoveAttendee(ctx, ev.ID, "a@x.com"); err != nil || removed {
		t.Fatalf("repeat RemoveAttendee: removed=%v err=%v", removed, err)
	}
	got, _ = store.GetByID(ctx, ev.ID)
	if got.AttendeeCount != 0 || len(got.Attendees) != 0 {
		t.Errorf("expected no attendees, got %+v", got)
	}
}
