// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryMembership   = "membership"
	CategoryRegistration = "registration"
	CategoryPayment      = "payment"
	CategoryAdmin        = "admin"
)

// Membership event types
const (
	EventMembershipActivated     = "membership_activated"
	EventMembershipRemoved       = "membership_removed"
	EventMembershipStatusChanged = "membership_status_changed"
)

// Registration event types
const (
	EventRegistrationCreated   = "registration_created"
	EventRegistrationCancelled = "registration_cancelled"
)

// Payment event types
const (
	EventCheckoutStarted  = "checkout_started"
	EventPaymentCompleted = "payment_completed"
)

// Admin event types
const (
	EventClubCreated       = "club_created"
	EventClubStatusChanged = "club_status_changed"
	EventUserRoleChanged   = "user_role_changed"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	ClubID    *primitive.ObjectID `bson:"club_id,omitempty" json:"clubId,omitempty"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	// Who
	SubjectEmail string `bson:"subject_email,omitempty" json:"subjectEmail,omitempty"` // affected user
	ActorEmail   string `bson:"actor_email,omitempty" json:"actorEmail,omitempty"`     // who performed the action

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	ClubID       *primitive.ObjectID
	SubjectEmail string
	Category     string
	EventType    string
	StartTime    *time.Time
	EndTime      *time.Time
	Limit        int64
	Offset       int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func buildQuery(filter QueryFilter) bson.M {
	query := bson.M{}
	if filter.ClubID != nil {
		query["club_id"] = filter.ClubID
	}
	if filter.SubjectEmail != "" {
		query["subject_email"] = filter.SubjectEmail
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, most recent first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(filter))
}
