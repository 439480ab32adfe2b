package registrations

import "github.com/go-chi/chi/v5"

// Routes mounts the caller's registration list (typically under
// "/event-registrations").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeUserList)
	return r
}

// ManagerRoutes mounts the manager report (typically under
// "/manager/event-registrations").
func ManagerRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeManagerReport)
	return r
}
