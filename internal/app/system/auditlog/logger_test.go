package auditlog_test

import (
	"testing"

	"github.com/dalemusser/clubsphere/internal/app/store/audit"
	"github.com/dalemusser/clubsphere/internal/app/system/auditlog"
	"github.com/dalemusser/clubsphere/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// These should all be no-ops, not panic
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.MembershipActivated(ctx, primitive.NewObjectID(), "a@x.com", "cs_1")
	logger.ClubStatusChanged(ctx, primitive.NewObjectID(), "root@x.com", "approved")
}

func TestLogger_LogOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Workflow: auditlog.ModeLog, Admin: auditlog.ModeOff})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger.RegistrationCreated(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "a@x.com")
	logger.ClubStatusChanged(ctx, primitive.NewObjectID(), "root@x.com", "approved")

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["event_type"]; got != audit.EventRegistrationCreated {
		t.Errorf("event_type = %v", got)
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	clubID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Workflow: auditlog.ModeDB, Admin: auditlog.ModeDB})

	logger.MembershipActivated(ctx, clubID, "a@x.com", "cs_test_1")
	logger.MembershipStatusChanged(ctx, clubID, "a@x.com", "m@x.com", "active", "suspended")

	events, err := store.Query(ctx, audit.QueryFilter{ClubID: &clubID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{
		ClubID:    &clubID,
		EventType: audit.EventMembershipActivated,
	})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("activated count = %d, want 1", n)
	}
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Workflow: auditlog.ModeOff, Admin: auditlog.ModeOff})
	logger.PaymentCompleted(ctx, primitive.NewObjectID(), "a@x.com", "cs_1", "10.00")

	n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryPayment})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 0 {
		t.Error("expected no events when config is 'off'")
	}
}
