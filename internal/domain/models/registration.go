// internal/domain/models/registration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration states. Cancelled registrations are kept for history.
const (
	RegistrationRegistered = "registered"
	RegistrationCancelled  = "cancelled"
)

// EventRegistration links a user to an event and the event's club.
// At most one registered document exists per (event_id, user_email);
// any number of cancelled ones may sit alongside it.
type EventRegistration struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID      primitive.ObjectID `bson:"event_id" json:"eventId"`
	ClubID       primitive.ObjectID `bson:"club_id" json:"clubId"`
	UserEmail    string             `bson:"user_email" json:"userEmail"`
	Status       string             `bson:"status" json:"status"`
	RegisteredAt time.Time          `bson:"registered_at" json:"registeredAt"`
	CancelledAt  *time.Time         `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
}
