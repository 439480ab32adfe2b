package users

import (
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the user endpoints (typically under "/users").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeCreate)
	r.Delete("/session", h.ServeSignOut)
	r.Get("/{email}/role", h.ServeRole)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))
		pr.Patch("/{id}/role", h.ServeSetRole)
	})
	return r
}
