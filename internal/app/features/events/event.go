package events

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/clubsphere/internal/app/policy/clubpolicy"
	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/dalemusser/clubsphere/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubsphere/internal/app/system/inputval"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// createRequest ignores any isPaid or eventFee sent by the client.
type createRequest struct {
	ClubID       string    `json:"clubId" validate:"required,objectid"`
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"max=5000"`
	EventDate    time.Time `json:"eventDate" validate:"required"`
	Location     string    `json:"location" validate:"max=200"`
	MaxAttendees int       `json:"maxAttendees" validate:"gte=0"`
	ManagerEmail string    `json:"managerEmail"`
}

// ServeCreate handles POST /events. Only the club's manager (or an admin)
// may create events in it.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.Error(w, h.Log, "create event", err)
		return
	}
	req.Title = htmlsanitize.StripTags(req.Title)
	if err := inputval.Struct(req); err != nil {
		jsonresp.Error(w, h.Log, "create event", err)
		return
	}
	clubID, _ := primitive.ObjectIDFromHex(req.ClubID)

	email, role, err := h.Sessions.Acting(r, "managerEmail", req.ManagerEmail)
	if err != nil {
		jsonresp.Error(w, h.Log, "create event", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create event")
	defer cancel()

	actor, err := clubpolicy.ResolveActor(ctx, h.Roles, email, role)
	if err != nil {
		jsonresp.Error(w, h.Log, "create event", err)
		return
	}
	club, err := h.Clubs.GetByID(ctx, clubID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = apperr.NotFound("club not found")
	}
	if err != nil {
		jsonresp.Error(w, h.Log, "create event", err)
		return
	}
	if err := clubpolicy.RequireManager(actor, club); err != nil {
		jsonresp.Error(w, h.Log, "create event", err)
		return
	}

	ev, err := h.Events.Create(ctx, models.Event{
		ClubID:       club.ID,
		Title:        req.Title,
		Description:  htmlsanitize.Sanitize(req.Description),
		Date:         req.EventDate.UTC(),
		Location:     htmlsanitize.StripTags(req.Location),
		MaxAttendees: req.MaxAttendees,
		CreatedBy:    actor.Email,
	})
	if err != nil {
		jsonresp.Error(w, h.Log, "create event", err)
		return
	}
	h.Log.Info("event created", zap.String("event_id", ev.ID.Hex()), zap.String("club_id", club.ID.Hex()))
	jsonresp.Created(w, ev)
}

// ServeGet handles GET /events/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Error(w, h.Log, "get event", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get event")
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = apperr.NotFound("event not found")
	}
	if err != nil {
		jsonresp.Error(w, h.Log, "get event", err)
		return
	}
	jsonresp.OK(w, ev)
}
