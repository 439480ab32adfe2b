// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles. A user document without a role is treated as RoleMember.
const (
	RoleMember  = "member"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// User is a person known to the platform, keyed by email.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email         string             `bson:"email" json:"email"`
	DisplayName   string             `bson:"display_name" json:"displayName"`
	DisplayNameCI string             `bson:"display_name_ci" json:"-"` // lowercase, diacritics-stripped
	PhotoURL      string             `bson:"photo_url,omitempty" json:"photoURL,omitempty"`
	Role          string             `bson:"role,omitempty" json:"role"` // member | manager | admin

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// EffectiveRole returns the stored role, defaulting to RoleMember.
func (u User) EffectiveRole() string {
	if u.Role == "" {
		return RoleMember
	}
	return u.Role
}

// IsValidRole reports whether r is a known user role.
func IsValidRole(r string) bool {
	switch r {
	case RoleMember, RoleManager, RoleAdmin:
		return true
	}
	return false
}
