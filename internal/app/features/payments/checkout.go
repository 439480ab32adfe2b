package payments

import (
	"net/http"

	"github.com/dalemusser/clubsphere/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubsphere/internal/app/system/inputval"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type checkoutRequest struct {
	UserEmail string  `json:"userEmail"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	ClubID    string  `json:"clubId" validate:"required,objectid"`
	ClubName  string  `json:"clubName" validate:"max=120"`
}

// ServeCreateCheckout handles POST /create-checkout-session.
func (h *Handler) ServeCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.Error(w, h.Log, "create checkout", err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		jsonresp.Error(w, h.Log, "create checkout", err)
		return
	}
	clubID, _ := primitive.ObjectIDFromHex(req.ClubID)

	email, err := h.Sessions.ActingEmail(r, "userEmail", req.UserEmail)
	if err != nil {
		jsonresp.Error(w, h.Log, "create checkout", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create checkout")
	defer cancel()

	co, err := h.Payments.StartCheckout(ctx, email, req.Amount, clubID, htmlsanitize.StripTags(req.ClubName))
	if err != nil {
		jsonresp.Error(w, h.Log, "create checkout", err)
		return
	}
	jsonresp.OK(w, co)
}
