package users

import (
	"net/http"

	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/app/system/inputval"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/app/system/normalize"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"go.uber.org/zap"
)

// ServeCreate handles POST /users. The user is created when absent. The
// caller's identity follows auth.ActingEmail; a session is bound only by
// bindSession's rules.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.Error(w, h.Log, "create user", err)
		return
	}
	req.Email = normalize.Email(req.Email)
	if err := inputval.Struct(req); err != nil {
		jsonresp.Error(w, h.Log, "create user", err)
		return
	}
	if h.Sessions != nil {
		if _, err := h.Sessions.ActingEmail(r, "email", req.Email); err != nil {
			jsonresp.Error(w, h.Log, "create user", err)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create user")
	defer cancel()

	u, created, err := h.Users.CreateIfAbsent(ctx, models.User{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		jsonresp.Error(w, h.Log, "create user", err)
		return
	}

	h.bindSession(w, r, u)

	if !created {
		jsonresp.OK(w, createResponse{Message: "user exists", User: &u})
		return
	}
	h.Log.Info("user created", zap.String("email", u.Email))
	jsonresp.Created(w, createResponse{User: &u})
}

// ServeSignOut handles DELETE /users/session by clearing the session cookie.
func (h *Handler) ServeSignOut(w http.ResponseWriter, r *http.Request) {
	if h.Sessions != nil {
		if err := h.Sessions.SignOut(w, r); err != nil {
			h.Log.Warn("could not clear session", zap.Error(err))
		}
	}
	jsonresp.OK(w, createResponse{Message: "signed out"})
}

// bindSession signs the caller in as u when the request may claim it: a
// session already holding u's email is refreshed, and a caller without a
// session is signed in only as a plain member. Callers acting for another
// user keep their own session.
func (h *Handler) bindSession(w http.ResponseWriter, r *http.Request, u models.User) {
	if h.Sessions == nil {
		return
	}
	if cur, ok := auth.CurrentUser(r); ok {
		if cur.Email != u.Email {
			return
		}
	} else if u.EffectiveRole() != models.RoleMember {
		h.Log.Info("session not bound for elevated role without sign-in",
			zap.String("email", u.Email), zap.String("role", u.EffectiveRole()))
		return
	}

	su := auth.SessionUser{ID: u.ID.Hex(), Name: u.DisplayName, Email: u.Email, Role: u.EffectiveRole()}
	if err := h.Sessions.SignIn(w, r, su); err != nil {
		h.Log.Warn("could not establish session", zap.String("email", u.Email), zap.Error(err))
	}
}
