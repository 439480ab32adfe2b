package clubs

import (
	"errors"
	"net/http"

	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubsphere/internal/app/system/inputval"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/app/system/money"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeCreate handles POST /clubs. The caller becomes the manager and the
// club starts out pending.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.Error(w, h.Log, "create club", err)
		return
	}
	req.ClubName = htmlsanitize.StripTags(req.ClubName)
	if err := inputval.Struct(req); err != nil {
		jsonresp.Error(w, h.Log, "create club", err)
		return
	}
	if req.MembershipFee > 0 {
		if _, err := money.ToMinor(req.MembershipFee); err != nil {
			jsonresp.Error(w, h.Log, "create club", apperr.Validation("membershipFee must have at most two decimal places"))
			return
		}
	}

	manager, err := h.Sessions.ActingEmail(r, "managerEmail", req.ManagerEmail)
	if err != nil {
		jsonresp.Error(w, h.Log, "create club", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create club")
	defer cancel()

	club, err := h.Clubs.Create(ctx, models.Club{
		Name:          req.ClubName,
		Description:   htmlsanitize.Sanitize(req.Description),
		Category:      htmlsanitize.StripTags(req.Category),
		Location:      htmlsanitize.StripTags(req.Location),
		BannerURL:     req.BannerImage,
		ManagerEmail:  manager,
		MembershipFee: req.MembershipFee,
	})
	if err != nil {
		jsonresp.Error(w, h.Log, "create club", err)
		return
	}

	h.Audit.ClubCreated(ctx, club.ID, manager, club.Name)
	h.Log.Info("club created", zap.String("club_id", club.ID.Hex()), zap.String("manager", manager))
	jsonresp.Created(w, clubResponse{Club: club})
}

// ServeGet handles GET /clubs/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Error(w, h.Log, "get club", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get club")
	defer cancel()

	club, total, err := h.Ledger.ClubSummary(ctx, id)
	if err != nil {
		jsonresp.Error(w, h.Log, "get club", err)
		return
	}
	jsonresp.OK(w, clubResponse{Club: club, TotalMembers: total})
}

// ServeSetStatus handles PATCH /clubs/{id}/status. Admin only.
func (h *Handler) ServeSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Error(w, h.Log, "set club status", err)
		return
	}
	var req statusRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.Error(w, h.Log, "set club status", err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		jsonresp.Error(w, h.Log, "set club status", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set club status")
	defer cancel()

	club, err := h.Clubs.SetStatus(ctx, id, req.Status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFound("club not found")
		}
		jsonresp.Error(w, h.Log, "set club status", err)
		return
	}

	actor := ""
	if u, ok := auth.CurrentUser(r); ok {
		actor = u.Email
	}
	h.Audit.ClubStatusChanged(ctx, club.ID, actor, club.Status)
	jsonresp.OK(w, clubResponse{Club: club, TotalMembers: int64(club.MemberCount)})
}

// ServeEvents handles GET /clubs/{id}/events.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Error(w, h.Log, "club events", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "club events")
	defer cancel()

	events, err := h.Events.ListByClub(ctx, id)
	if err != nil {
		jsonresp.Error(w, h.Log, "club events", err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	jsonresp.OK(w, events)
}
