package clubs

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubsphere/internal/app/ledger"
	"github.com/dalemusser/clubsphere/internal/app/policy/clubpolicy"
	"github.com/dalemusser/clubsphere/internal/app/system/inputval"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeJoin handles POST /clubs/{id}/join for clubs without a fee.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Error(w, h.Log, "join club", err)
		return
	}
	var req joinRequest
	if r.ContentLength != 0 {
		if err := jsonresp.Decode(r, &req); err != nil {
			jsonresp.Error(w, h.Log, "join club", err)
			return
		}
	}
	email, err := h.Sessions.ActingEmail(r, "userEmail", req.UserEmail)
	if err != nil {
		jsonresp.Error(w, h.Log, "join club", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "join club")
	defer cancel()

	m, err := h.Ledger.Join(ctx, id, email)
	if err != nil {
		jsonresp.Error(w, h.Log, "join club", err)
		return
	}
	jsonresp.Created(w, m)
}

// ServeMembers handles GET /clubs/{id}/members?status=&managerEmail=.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Error(w, h.Log, "list members", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list members")
	defer cancel()

	actor, err := h.actor(ctx, r, r.URL.Query().Get("managerEmail"))
	if err != nil {
		jsonresp.Error(w, h.Log, "list members", err)
		return
	}

	members, err := h.Ledger.ListMembers(ctx, actor, id, r.URL.Query().Get("status"))
	if err != nil {
		jsonresp.Error(w, h.Log, "list members", err)
		return
	}
	if members == nil {
		members = []ledger.MemberView{}
	}
	jsonresp.OK(w, members)
}

// ServeMemberStatus handles PATCH /clubs/{id}/members/{memberId}/status.
func (h *Handler) ServeMemberStatus(w http.ResponseWriter, r *http.Request) {
	clubID, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Error(w, h.Log, "set member status", err)
		return
	}
	memberID, err := inputval.ObjectID("memberId", chi.URLParam(r, "memberId"))
	if err != nil {
		jsonresp.Error(w, h.Log, "set member status", err)
		return
	}
	var req memberStatusRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.Error(w, h.Log, "set member status", err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		jsonresp.Error(w, h.Log, "set member status", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "set member status")
	defer cancel()

	actor, err := h.actor(ctx, r, req.ManagerEmail)
	if err != nil {
		jsonresp.Error(w, h.Log, "set member status", err)
		return
	}

	m, err := h.Ledger.SetMemberStatus(ctx, actor, clubID, memberID, req.Status)
	if err != nil {
		jsonresp.Error(w, h.Log, "set member status", err)
		return
	}
	jsonresp.OK(w, m)
}

func (h *Handler) actor(ctx context.Context, r *http.Request, supplied string) (clubpolicy.Actor, error) {
	email, role, err := h.Sessions.Acting(r, "managerEmail", supplied)
	if err != nil {
		return clubpolicy.Actor{}, err
	}
	return clubpolicy.ResolveActor(ctx, h.Roles, email, role)
}
