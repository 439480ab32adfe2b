// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership states.
const (
	MembershipActive    = "active"
	MembershipInactive  = "inactive"
	MembershipExpired   = "expired"
	MembershipSuspended = "suspended"
)

// Membership is the authoritative link between a user and a club.
// Exactly one document per (club_id, user_email).
type Membership struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClubID     primitive.ObjectID `bson:"club_id" json:"clubId"`
	UserEmail  string             `bson:"user_email" json:"userEmail"`
	Status     string             `bson:"status" json:"status"`
	JoinedAt   time.Time          `bson:"joined_at" json:"joinedAt"`
	PaymentRef string             `bson:"payment_ref,omitempty" json:"paymentId,omitempty"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

// IsValidMembershipStatus reports whether s is one of the membership states.
func IsValidMembershipStatus(s string) bool {
	switch s {
	case MembershipActive, MembershipInactive, MembershipExpired, MembershipSuspended:
		return true
	}
	return false
}
