package events

import "github.com/go-chi/chi/v5"

// Routes mounts the event endpoints (typically under "/events").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeCreate)
	r.Route("/{id}", func(er chi.Router) {
		er.Get("/", h.ServeGet)
		er.Get("/can-register", h.ServeCanRegister)
		er.Post("/register", h.ServeRegister)
		er.Delete("/cancel-registration", h.ServeCancel)
	})
	return r
}
