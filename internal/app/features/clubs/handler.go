// Package clubs serves club creation, lookup, moderation, joining, member
// management, and a club's event listing.
package clubs

import (
	"context"

	"github.com/dalemusser/clubsphere/internal/app/ledger"
	"github.com/dalemusser/clubsphere/internal/app/policy/clubpolicy"
	"github.com/dalemusser/clubsphere/internal/app/system/auditlog"
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ClubStore is the club persistence the handlers write through.
type ClubStore interface {
	Create(ctx context.Context, c models.Club) (models.Club, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) (models.Club, error)
}

// EventLister lists a club's events.
type EventLister interface {
	ListByClub(ctx context.Context, clubID primitive.ObjectID) ([]models.Event, error)
}

// Ledger is the membership ledger as the club routes use it.
type Ledger interface {
	ClubSummary(ctx context.Context, clubID primitive.ObjectID) (models.Club, int64, error)
	Join(ctx context.Context, clubID primitive.ObjectID, email string) (models.Membership, error)
	ListMembers(ctx context.Context, actor clubpolicy.Actor, clubID primitive.ObjectID, status string) ([]ledger.MemberView, error)
	SetMemberStatus(ctx context.Context, actor clubpolicy.Actor, clubID, membershipID primitive.ObjectID, status string) (models.Membership, error)
}

// Handler serves /clubs.
type Handler struct {
	Clubs    ClubStore
	Events   EventLister
	Ledger   Ledger
	Roles    clubpolicy.RoleSource
	Sessions *auth.SessionManager
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(clubs ClubStore, events EventLister, led Ledger, roles clubpolicy.RoleSource, sessions *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Clubs:    clubs,
		Events:   events,
		Ledger:   led,
		Roles:    roles,
		Sessions: sessions,
		Audit:    audit,
		Log:      logger,
	}
}
