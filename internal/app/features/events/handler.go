// Package events serves event creation and lookup and the registration
// workflow for a single event.
package events

import (
	"context"

	"github.com/dalemusser/clubsphere/internal/app/eventreg"
	"github.com/dalemusser/clubsphere/internal/app/policy/clubpolicy"
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EventStore is the event persistence the handlers need.
type EventStore interface {
	Create(ctx context.Context, e models.Event) (models.Event, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error)
}

// ClubGetter loads the club an event is created in.
type ClubGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Club, error)
}

// Workflow is the event registration workflow.
type Workflow interface {
	CanRegister(ctx context.Context, eventID primitive.ObjectID, email string) (eventreg.Eligibility, error)
	Register(ctx context.Context, eventID primitive.ObjectID, email string) (models.EventRegistration, error)
	Cancel(ctx context.Context, eventID primitive.ObjectID, email string) (models.EventRegistration, error)
}

// Handler serves /events.
type Handler struct {
	Events   EventStore
	Clubs    ClubGetter
	Regs     Workflow
	Roles    clubpolicy.RoleSource
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

func NewHandler(events EventStore, clubs ClubGetter, regs Workflow, roles clubpolicy.RoleSource, sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Events:   events,
		Clubs:    clubs,
		Regs:     regs,
		Roles:    roles,
		Sessions: sessions,
		Log:      logger,
	}
}
