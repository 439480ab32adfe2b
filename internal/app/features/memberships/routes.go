package memberships

import "github.com/go-chi/chi/v5"

// Routes mounts the membership endpoints (typically under "/memberships").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/check", h.ServeCheck)
	r.Delete("/{clubId}", h.ServeRemove)
	return r
}
