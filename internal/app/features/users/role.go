package users

import (
	"errors"
	"net/http"

	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/app/system/inputval"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/app/system/normalize"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeRole handles GET /users/{email}/role. Unknown users are members.
func (h *Handler) ServeRole(w http.ResponseWriter, r *http.Request) {
	email, err := inputval.Email("email", chi.URLParam(r, "email"))
	if err != nil {
		jsonresp.Error(w, h.Log, "user role", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user role")
	defer cancel()

	role, err := h.Users.RoleByEmail(ctx, email)
	if err != nil {
		jsonresp.Error(w, h.Log, "user role", err)
		return
	}
	jsonresp.OK(w, roleResponse{Role: role})
}

// ServeSetRole handles PATCH /users/{id}/role. Admin only.
func (h *Handler) ServeSetRole(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Error(w, h.Log, "set user role", err)
		return
	}
	var req roleRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.Error(w, h.Log, "set user role", err)
		return
	}
	req.Role = normalize.Role(req.Role)
	if err := inputval.Struct(req); err != nil {
		jsonresp.Error(w, h.Log, "set user role", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set user role")
	defer cancel()

	if err := h.Users.SetRole(ctx, id, req.Role); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFound("user not found")
		}
		jsonresp.Error(w, h.Log, "set user role", err)
		return
	}

	actor := ""
	if u, ok := auth.CurrentUser(r); ok {
		actor = u.Email
	}
	h.Audit.UserRoleChanged(ctx, id, actor, req.Role)
	jsonresp.OK(w, roleResponse{Role: req.Role})
}
