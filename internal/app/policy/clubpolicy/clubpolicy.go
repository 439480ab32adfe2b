// Package clubpolicy provides authorization decisions for club management.
//
// Authorization rules:
//   - Admins can manage every club
//   - A club's recorded manager can manage that club
//   - Everyone else can only read
package clubpolicy

import (
	"context"

	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/dalemusser/clubsphere/internal/app/system/normalize"
	"github.com/dalemusser/clubsphere/internal/domain/models"
)

// Actor is the identity an operation is performed as.
type Actor struct {
	Email string
	Role  string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// RoleSource looks up the stored role of a user by email.
type RoleSource interface {
	RoleByEmail(ctx context.Context, email string) (string, error)
}

// ResolveActor builds an Actor for email. When role is already known (from a
// session) it is used as is; otherwise it is read from roles.
func ResolveActor(ctx context.Context, roles RoleSource, email, role string) (Actor, error) {
	email = normalize.Email(email)
	if role != "" {
		return Actor{Email: email, Role: role}, nil
	}
	r, err := roles.RoleByEmail(ctx, email)
	if err != nil {
		return Actor{}, err
	}
	return Actor{Email: email, Role: r}, nil
}

// CanManage reports whether actor may manage club.
func CanManage(actor Actor, club models.Club) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Email != "" && normalize.Email(club.ManagerEmail) == normalize.Email(actor.Email)
}

// RequireManager returns a Forbidden error unless actor may manage club.
func RequireManager(actor Actor, club models.Club) error {
	if CanManage(actor, club) {
		return nil
	}
	return apperr.Forbidden("only the club manager can do this")
}
