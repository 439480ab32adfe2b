package eventreg_test

import (
	"sync"
	"testing"

	"github.com/dalemusser/clubsphere/internal/app/eventreg"
	"github.com/dalemusser/clubsphere/internal/app/ledger"
	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/dalemusser/clubsphere/internal/app/system/txn"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/dalemusser/clubsphere/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type harness struct {
	svc    *eventreg.Service
	ledger *ledger.Service
	fx     *testutil.Fixtures
}

func newHarness(t *testing.T) harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	runner := txn.New(db.Client(), zap.NewNop())
	led := ledger.New(db, runner, nil, zap.NewNop())
	return harness{
		svc:    eventreg.New(db, led, runner, nil, zap.NewNop()),
		ledger: led,
		fx:     testutil.NewFixtures(t, db),
	}
}

func (h harness) loadEvent(t *testing.T, id primitive.ObjectID) models.Event {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var ev models.Event
	if err := h.fx.DB().Collection("events").FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		t.Fatalf("load event: %v", err)
	}
	return ev
}

func TestRegister_RequiresMembership(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	club := h.fx.CreateClub(ctx, "Chess", "manager@test.com", models.ClubApproved, 0)
	ev := h.fx.CreateEvent(ctx, club.ID, "Blitz night", 0)

	el, err := h.svc.CanRegister(ctx, ev.ID, "a@x.com")
	if err != nil {
		t.Fatalf("CanRegister: %v", err)
	}
	if el.IsClubMember || el.CanRegister {
		t.Errorf("non-member eligibility = %+v", el)
	}

	_, err = h.svc.Register(ctx, ev.ID, "a@x.com")
	if !apperr.Is(err, apperr.KindConflict) || apperr.Message(err) != "not a club member" {
		t.Fatalf("expected Conflict not a club member, got %v", err)
	}
	n, _ := h.fx.DB().Collection("event_registrations").CountDocuments(ctx, bson.M{})
	if n != 0 {
		t.Errorf("registration created for non-member: %d", n)
	}
	if got := h.loadEvent(t, ev.ID); got.AttendeeCount != 0 || len(got.Attendees) != 0 {
		t.Errorf("attendees changed: %+v", got)
	}
}

func TestRegister_NoDoubleRegistration(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	club := h.fx.CreateClub(ctx, "Chess", "manager@test.com", models.ClubApproved, 0)
	ev := h.fx.CreateEvent(ctx, club.ID, "Blitz night", 0)
	if _, err := h.ledger.Join(ctx, club.ID, "a@x.com"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	reg, err := h.svc.Register(ctx, ev.ID, "A@x.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Status != models.RegistrationRegistered || reg.ClubID != club.ID || reg.UserEmail != "a@x.com" {
		t.Errorf("unexpected registration %+v", reg)
	}

	_, err = h.svc.Register(ctx, ev.ID, "a@x.com")
	if !apperr.Is(err, apperr.KindConflict) || apperr.Message(err) != "already registered" {
		t.Fatalf("expected Conflict already registered, got %v", err)
	}

	got := h.loadEvent(t, ev.ID)
	if got.AttendeeCount != 1 || len(got.Attendees) != 1 {
		t.Errorf("attendees = %v count = %d, want one", got.Attendees, got.AttendeeCount)
	}

	el, err := h.svc.CanRegister(ctx, ev.ID, "a@x.com")
	if err != nil {
		t.Fatalf("CanRegister: %v", err)
	}
	if !el.IsClubMember || !el.AlreadyRegistered || el.CanRegister {
		t.Errorf("eligibility = %+v", el)
	}
}

func TestRegister_RestoresMissingAttendee(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	club := h.fx.CreateClub(ctx, "Chess", "manager@test.com", models.ClubApproved, 0)
	ev := h.fx.CreateEvent(ctx, club.ID, "Blitz night", 0)
	if _, err := h.ledger.Join(ctx, club.ID, "a@x.com"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := h.svc.Register(ctx, ev.ID, "a@x.com"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Leave the registration but drop the attendee entry, as an interrupted
	// write without a transaction would.
	_, err := h.fx.DB().Collection("events").UpdateOne(ctx,
		bson.M{"_id": ev.ID},
		bson.M{"$pull": bson.M{"attendees": "a@x.com"}, "$inc": bson.M{"attendee_count": -1}})
	if err != nil {
		t.Fatalf("drop attendee: %v", err)
	}

	_, err = h.svc.Register(ctx, ev.ID, "a@x.com")
	if !apperr.Is(err, apperr.KindConflict) || apperr.Message(err) != "already registered" {
		t.Fatalf("expected Conflict already registered, got %v", err)
	}

	got := h.loadEvent(t, ev.ID)
	if got.AttendeeCount != 1 || len(got.Attendees) != 1 || got.Attendees[0] != "a@x.com" {
		t.Errorf("attendees = %v count = %d, want restored", got.Attendees, got.AttendeeCount)
	}
}

func TestRegister_ConcurrentSingleWinner(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	club := h.fx.CreateClub(ctx, "Chess", "manager@test.com", models.ClubApproved, 0)
	ev := h.fx.CreateEvent(ctx, club.ID, "Blitz night", 0)
	if _, err := h.ledger.Join(ctx, club.ID, "a@x.com"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Register(ctx, ev.ID, "a@x.com")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	n, err := h.fx.DB().Collection("event_registrations").CountDocuments(ctx, bson.M{
		"event_id": ev.ID, "user_email": "a@x.com", "status": models.RegistrationRegistered,
	})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("registered records = %d, want 1", n)
	}
	if got := h.loadEvent(t, ev.ID); got.AttendeeCount != 1 {
		t.Errorf("attendee_count = %d, want 1", got.AttendeeCount)
	}
}

func TestCancel_ThenRecheck(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	club := h.fx.CreateClub(ctx, "Chess", "manager@test.com", models.ClubApproved, 0)
	ev := h.fx.CreateEvent(ctx, club.ID, "Blitz night", 0)
	if _, err := h.ledger.Join(ctx, club.ID, "a@x.com"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := h.svc.Register(ctx, ev.ID, "a@x.com"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	reg, err := h.svc.Cancel(ctx, ev.ID, "a@x.com")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if reg.Status != models.RegistrationCancelled || reg.CancelledAt == nil {
		t.Errorf("cancelled registration = %+v", reg)
	}
	if got := h.loadEvent(t, ev.ID); got.AttendeeCount != 0 || len(got.Attendees) != 0 {
		t.Errorf("attendees after cancel = %v (%d)", got.Attendees, got.AttendeeCount)
	}

	el, err := h.svc.CanRegister(ctx, ev.ID, "a@x.com")
	if err != nil {
		t.Fatalf("CanRegister: %v", err)
	}
	if el.AlreadyRegistered || !el.CanRegister {
		t.Errorf("eligibility after cancel = %+v", el)
	}

	// The cancelled record is kept and re-registration is allowed.
	if _, err := h.svc.Register(ctx, ev.ID, "a@x.com"); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	total, _ := h.fx.DB().Collection("event_registrations").CountDocuments(ctx, bson.M{"event_id": ev.ID})
	if total != 2 {
		t.Errorf("registration documents = %d, want 2", total)
	}

	if _, err := h.svc.Cancel(ctx, ev.ID, "b@x.com"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound cancelling unknown registration, got %v", err)
	}
}

func TestRegister_EventFull(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	club := h.fx.CreateClub(ctx, "Chess", "manager@test.com", models.ClubApproved, 0)
	ev := h.fx.CreateEvent(ctx, club.ID, "Simul", 1)
	for _, e := range []string{"a@x.com", "b@x.com"} {
		if _, err := h.ledger.Join(ctx, club.ID, e); err != nil {
			t.Fatalf("Join %s: %v", e, err)
		}
	}

	if _, err := h.svc.Register(ctx, ev.ID, "a@x.com"); err != nil {
		t.Fatalf("Register a: %v", err)
	}
	_, err := h.svc.Register(ctx, ev.ID, "b@x.com")
	if !apperr.Is(err, apperr.KindConflict) || apperr.Message(err) != "event is full" {
		t.Fatalf("expected event is full, got %v", err)
	}

	el, err := h.svc.CanRegister(ctx, ev.ID, "b@x.com")
	if err != nil {
		t.Fatalf("CanRegister: %v", err)
	}
	if !el.EventFull || el.CanRegister {
		t.Errorf("eligibility = %+v", el)
	}
}

func TestRegister_UnknownEvent(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := h.svc.Register(ctx, primitive.NewObjectID(), "a@x.com"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Register: expected NotFound, got %v", err)
	}
	if _, err := h.svc.CanRegister(ctx, primitive.NewObjectID(), "a@x.com"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("CanRegister: expected NotFound, got %v", err)
	}
	if _, err := h.svc.Register(ctx, primitive.NewObjectID(), ""); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected Validation for empty email, got %v", err)
	}
}

func TestManagerReport(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := h.fx.CreateClub(ctx, "Chess", "manager@test.com", models.ClubApproved, 0)
	theirs := h.fx.CreateClub(ctx, "Go", "other@test.com", models.ClubApproved, 0)
	ev1 := h.fx.CreateEvent(ctx, mine.ID, "Blitz", 0)
	ev2 := h.fx.CreateEvent(ctx, theirs.ID, "Tsumego", 0)

	for _, e := range []string{"a@x.com", "b@x.com"} {
		if _, err := h.ledger.Join(ctx, mine.ID, e); err != nil {
			t.Fatalf("Join: %v", err)
		}
		if _, err := h.svc.Register(ctx, ev1.ID, e); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if _, err := h.svc.Cancel(ctx, ev1.ID, "b@x.com"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := h.ledger.Join(ctx, theirs.ID, "a@x.com"); err != nil {
		t.Fatalf("Join theirs: %v", err)
	}
	if _, err := h.svc.Register(ctx, ev2.ID, "a@x.com"); err != nil {
		t.Fatalf("Register theirs: %v", err)
	}

	// A registration whose event was deleted still shows up.
	orphan := primitive.NewObjectID()
	h.fx.DB().Collection("event_registrations").InsertOne(ctx, models.EventRegistration{
		ID: primitive.NewObjectID(), EventID: orphan, ClubID: mine.ID,
		UserEmail: "c@x.com", Status: models.RegistrationRegistered,
	})

	report, err := h.svc.ManagerReport(ctx, "Manager@Test.com")
	if err != nil {
		t.Fatalf("ManagerReport: %v", err)
	}
	want := eventreg.Summary{Total: 3, Active: 2, Cancelled: 1}
	if report.Summary != want {
		t.Errorf("summary = %+v, want %+v", report.Summary, want)
	}
	var sawUnknown bool
	for _, row := range report.Registrations {
		if row.ClubName != "Chess" {
			t.Errorf("row from foreign club: %+v", row)
		}
		if row.EventID == orphan {
			sawUnknown = row.EventTitle == eventreg.UnknownEvent
		}
	}
	if !sawUnknown {
		t.Error("expected orphaned registration with Unknown event title")
	}

	empty, err := h.svc.ManagerReport(ctx, "nobody@test.com")
	if err != nil {
		t.Fatalf("ManagerReport empty: %v", err)
	}
	if empty.Summary.Total != 0 || len(empty.Registrations) != 0 {
		t.Errorf("expected empty report, got %+v", empty)
	}
}

func TestListUserRegistrations(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	club := h.fx.CreateClub(ctx, "Chess", "manager@test.com", models.ClubApproved, 0)
	ev := h.fx.CreateEvent(ctx, club.ID, "Blitz", 0)
	if _, err := h.ledger.Join(ctx, club.ID, "a@x.com"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := h.svc.Register(ctx, ev.ID, "a@x.com"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rows, err := h.svc.ListUserRegistrations(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("ListUserRegistrations: %v", err)
	}
	if len(rows) != 1 || rows[0].EventTitle != "Blitz" || rows[0].ClubName != "Chess" {
		t.Errorf("rows = %+v", rows)
	}
}
