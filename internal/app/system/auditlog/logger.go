// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/dalemusser/clubsphere/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for audit events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// IsValidMode reports whether m is a known destination setting.
func IsValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Config holds audit logging configuration.
type Config struct {
	// Workflow controls membership, registration, and payment events.
	Workflow string
	// Admin controls club approval and role changes.
	Admin string
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
// A nil *Logger is valid and discards everything.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
	}
	if event.ClubID != nil {
		fields = append(fields, zap.String("club_id", event.ClubID.Hex()))
	}
	if event.SubjectEmail != "" {
		fields = append(fields, zap.String("subject", event.SubjectEmail))
	}
	if event.ActorEmail != "" {
		fields = append(fields, zap.String("actor", event.ActorEmail))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	l.zapLog.Info("audit event", fields...)
}

// Log records an event according to the configured destination for its category.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.config.Workflow
	if event.Category == audit.CategoryAdmin {
		setting = l.config.Admin
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Membership events ---

// MembershipActivated records a pair becoming active.
func (l *Logger) MembershipActivated(ctx context.Context, clubID primitive.ObjectID, email, paymentRef string) {
	details := map[string]string{}
	if paymentRef != "" {
		details["payment_ref"] = paymentRef
	}
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryMembership,
		EventType:    audit.EventMembershipActivated,
		ClubID:       &clubID,
		SubjectEmail: email,
		Details:      details,
	})
}

// MembershipRemoved records a membership being deleted.
func (l *Logger) MembershipRemoved(ctx context.Context, clubID primitive.ObjectID, email, priorStatus string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryMembership,
		EventType:    audit.EventMembershipRemoved,
		ClubID:       &clubID,
		SubjectEmail: email,
		Details:      map[string]string{"prior_status": priorStatus},
	})
}

// MembershipStatusChanged records a manager changing a member's status.
func (l *Logger) MembershipStatusChanged(ctx context.Context, clubID primitive.ObjectID, email, actor, from, to string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryMembership,
		EventType:    audit.EventMembershipStatusChanged,
		ClubID:       &clubID,
		SubjectEmail: email,
		ActorEmail:   actor,
		Details:      map[string]string{"from": from, "to": to},
	})
}

// --- Registration events ---

// RegistrationCreated records a user registering for an event.
func (l *Logger) RegistrationCreated(ctx context.Context, clubID, eventID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryRegistration,
		EventType:    audit.EventRegistrationCreated,
		ClubID:       &clubID,
		SubjectEmail: email,
		Details:      map[string]string{"event_id": eventID.Hex()},
	})
}

// RegistrationCancelled records a user cancelling a registration.
func (l *Logger) RegistrationCancelled(ctx context.Context, clubID, eventID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryRegistration,
		EventType:    audit.EventRegistrationCancelled,
		ClubID:       &clubID,
		SubjectEmail: email,
		Details:      map[string]string{"event_id": eventID.Hex()},
	})
}

// --- Payment events ---

// CheckoutStarted records a checkout session being created.
func (l *Logger) CheckoutStarted(ctx context.Context, clubID primitive.ObjectID, email, ref, amount string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryPayment,
		EventType:    audit.EventCheckoutStarted,
		ClubID:       &clubID,
		SubjectEmail: email,
		Details:      map[string]string{"gateway_ref": ref, "amount": amount},
	})
}

// PaymentCompleted records a payment being reconciled into a membership.
func (l *Logger) PaymentCompleted(ctx context.Context, clubID primitive.ObjectID, email, ref, amount string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryPayment,
		EventType:    audit.EventPaymentCompleted,
		ClubID:       &clubID,
		SubjectEmail: email,
		Details:      map[string]string{"gateway_ref": ref, "amount": amount},
	})
}

// --- Admin events ---

// ClubCreated records a new club submission.
func (l *Logger) ClubCreated(ctx context.Context, clubID primitive.ObjectID, manager, name string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventClubCreated,
		ClubID:     &clubID,
		ActorEmail: manager,
		Details:    map[string]string{"name": name},
	})
}

// ClubStatusChanged records an admin moving a club through its lifecycle.
func (l *Logger) ClubStatusChanged(ctx context.Context, clubID primitive.ObjectID, actor, status string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventClubStatusChanged,
		ClubID:     &clubID,
		ActorEmail: actor,
		Details:    map[string]string{"status": status},
	})
}

// UserRoleChanged records an admin changing a user's role.
func (l *Logger) UserRoleChanged(ctx context.Context, userID primitive.ObjectID, actor, role string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventUserRoleChanged,
		ActorEmail: actor,
		Details:    map[string]string{"user_id": userID.Hex(), "role": role},
	})
}
