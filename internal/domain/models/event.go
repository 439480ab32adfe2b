// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a club happening members can register for. Events are never paid.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClubID      primitive.ObjectID `bson:"club_id" json:"clubId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Date        time.Time          `bson:"date" json:"eventDate"`
	Location    string             `bson:"location" json:"location"`

	Attendees     []string `bson:"attendees" json:"attendees"`
	AttendeeCount int      `bson:"attendee_count" json:"attendeeCount"`
	MaxAttendees  int      `bson:"max_attendees,omitempty" json:"maxAttendees,omitempty"` // 0 means unlimited

	IsPaid bool    `bson:"is_paid" json:"isPaid"`
	Fee    float64 `bson:"fee" json:"eventFee"`

	CreatedBy string    `bson:"created_by" json:"createdBy"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Full reports whether the event has reached its attendee cap.
func (e Event) Full() bool {
	return e.MaxAttendees > 0 && e.AttendeeCount >= e.MaxAttendees
}
