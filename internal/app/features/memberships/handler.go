// Package memberships serves membership checks, a user's membership list,
// and leaving a club.
package memberships

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubsphere/internal/app/ledger"
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/app/system/inputval"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Ledger is the part of the membership ledger these routes use.
type Ledger interface {
	CheckMembership(ctx context.Context, clubID primitive.ObjectID, email string) (bool, error)
	ListForUser(ctx context.Context, email string) ([]ledger.MembershipView, error)
	RemoveMembership(ctx context.Context, clubID primitive.ObjectID, email string) error
}

// Handler serves /memberships.
type Handler struct {
	Ledger   Ledger
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

func NewHandler(led Ledger, sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Ledger: led, Sessions: sessions, Log: logger}
}

type checkResponse struct {
	IsMember bool `json:"isMember"`
}

type removeResponse struct {
	Removed bool `json:"removed"`
}

// ServeCheck handles GET /memberships/check?clubId=&userEmail=.
func (h *Handler) ServeCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clubID, err := inputval.ObjectID("clubId", q.Get("clubId"))
	if err != nil {
		jsonresp.Error(w, h.Log, "check membership", err)
		return
	}
	email, err := h.Sessions.ActingEmail(r, "userEmail", q.Get("userEmail"))
	if err != nil {
		jsonresp.Error(w, h.Log, "check membership", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "check membership")
	defer cancel()

	ok, err := h.Ledger.CheckMembership(ctx, clubID, email)
	if err != nil {
		jsonresp.Error(w, h.Log, "check membership", err)
		return
	}
	jsonresp.OK(w, checkResponse{IsMember: ok})
}

// ServeList handles GET /memberships?userEmail=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	email, err := h.Sessions.ActingEmail(r, "userEmail", r.URL.Query().Get("userEmail"))
	if err != nil {
		jsonresp.Error(w, h.Log, "list memberships", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list memberships")
	defer cancel()

	views, err := h.Ledger.ListForUser(ctx, email)
	if err != nil {
		jsonresp.Error(w, h.Log, "list memberships", err)
		return
	}
	if views == nil {
		views = []ledger.MembershipView{}
	}
	jsonresp.OK(w, views)
}

// ServeRemove handles DELETE /memberships/{clubId}?userEmail=.
func (h *Handler) ServeRemove(w http.ResponseWriter, r *http.Request) {
	clubID, err := inputval.ObjectID("clubId", chi.URLParam(r, "clubId"))
	if err != nil {
		jsonresp.Error(w, h.Log, "leave club", err)
		return
	}
	email, err := h.Sessions.ActingEmail(r, "userEmail", r.URL.Query().Get("userEmail"))
	if err != nil {
		jsonresp.Error(w, h.Log, "leave club", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "leave club")
	defer cancel()

	if err := h.Ledger.RemoveMembership(ctx, clubID, email); err != nil {
		jsonresp.Error(w, h.Log, "leave club", err)
		return
	}
	jsonresp.OK(w, removeResponse{Removed: true})
}
