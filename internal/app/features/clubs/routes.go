package clubs

import (
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the club endpoints (typically under "/clubs").
// Manager checks happen per club in the ledger; status moderation is
// admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeCreate)

	r.Route("/{id}", func(cr chi.Router) {
		cr.Get("/", h.ServeGet)
		cr.Post("/join", h.ServeJoin)
		cr.Get("/members", h.ServeMembers)
		cr.Patch("/members/{memberId}/status", h.ServeMemberStatus)
		cr.Get("/events", h.ServeEvents)

		cr.With(auth.RequireRole(models.RoleAdmin)).Patch("/status", h.ServeSetStatus)
	})
	return r
}
