package home

import (
	"net/http"
)

// Banner is the liveness text served at the root path.
const Banner = "Club Sphere Server is Running"

// Handler serves the root liveness response.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// ServeRoot handles GET /.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Banner))
}
