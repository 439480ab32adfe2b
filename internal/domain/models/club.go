// internal/domain/models/club.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Club lifecycle states. Clubs are created pending; an admin moves them on.
const (
	ClubPending  = "pending"
	ClubApproved = "approved"
	ClubRejected = "rejected"
	ClubActive   = "active"
	ClubInactive = "inactive"
)

// Club is a group users can join, run by a single manager.
//
// NOTE:
//   - Members and MemberCount are a cache of the memberships collection.
//     Only the membership ledger writes them, and always in one update,
//     so len(Members) == MemberCount == number of active memberships.
type Club struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"clubName"`
	NameCI       string             `bson:"name_ci" json:"-"`
	Description  string             `bson:"description" json:"description"`
	Category     string             `bson:"category" json:"category"`
	Location     string             `bson:"location" json:"location"`
	BannerURL    string             `bson:"banner_url,omitempty" json:"bannerImage,omitempty"`
	ManagerEmail string             `bson:"manager_email" json:"managerEmail"`
	Status       string             `bson:"status" json:"status"`

	Members       []string `bson:"members" json:"members"`
	MemberCount   int      `bson:"member_count" json:"memberCount"`
	MembershipFee float64  `bson:"membership_fee" json:"membershipFee"` // major currency units

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsValidClubStatus reports whether s is a known club state.
func IsValidClubStatus(s string) bool {
	switch s {
	case ClubPending, ClubApproved, ClubRejected, ClubActive, ClubInactive:
		return true
	}
	return false
}

// Joinable reports whether new members may join the club.
func (c Club) Joinable() bool {
	return c.Status == ClubApproved || c.Status == ClubActive
}

// RequiresPayment reports whether joining the club goes through checkout.
func (c Club) RequiresPayment() bool {
	return c.MembershipFee > 0
}
