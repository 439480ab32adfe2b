package events

import (
	"net/http"

	"github.com/dalemusser/clubsphere/internal/app/system/inputval"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type registerRequest struct {
	UserEmail string `json:"userEmail"`
}

// target resolves the event id path parameter and the acting email.
func (h *Handler) target(r *http.Request, supplied string) (primitive.ObjectID, string, error) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, "", err
	}
	email, err := h.Sessions.ActingEmail(r, "userEmail", supplied)
	if err != nil {
		return primitive.NilObjectID, "", err
	}
	return id, email, nil
}

// ServeCanRegister handles GET /events/{id}/can-register?userEmail=.
// The answer is advisory; Register checks again.
func (h *Handler) ServeCanRegister(w http.ResponseWriter, r *http.Request) {
	id, email, err := h.target(r, r.URL.Query().Get("userEmail"))
	if err != nil {
		jsonresp.Error(w, h.Log, "can register", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "can register")
	defer cancel()

	el, err := h.Regs.CanRegister(ctx, id, email)
	if err != nil {
		jsonresp.Error(w, h.Log, "can register", err)
		return
	}
	jsonresp.OK(w, el)
}

// ServeRegister handles POST /events/{id}/register.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if r.ContentLength != 0 {
		if err := jsonresp.Decode(r, &req); err != nil {
			jsonresp.Error(w, h.Log, "register", err)
			return
		}
	}
	id, email, err := h.target(r, req.UserEmail)
	if err != nil {
		jsonresp.Error(w, h.Log, "register", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register")
	defer cancel()

	reg, err := h.Regs.Register(ctx, id, email)
	if err != nil {
		jsonresp.Error(w, h.Log, "register", err)
		return
	}
	jsonresp.Created(w, reg)
}

// ServeCancel handles DELETE /events/{id}/cancel-registration?userEmail=.
func (h *Handler) ServeCancel(w http.ResponseWriter, r *http.Request) {
	id, email, err := h.target(r, r.URL.Query().Get("userEmail"))
	if err != nil {
		jsonresp.Error(w, h.Log, "cancel registration", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "cancel registration")
	defer cancel()

	reg, err := h.Regs.Cancel(ctx, id, email)
	if err != nil {
		jsonresp.Error(w, h.Log, "cancel registration", err)
		return
	}
	jsonresp.OK(w, reg)
}
