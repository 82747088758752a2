package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the handler's routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/comments", h.getComments)
	r.Get("/comments/export", h.exportCSV)
	r.Post("/classify", h.classify)
	r.Get("/keys/status", h.keyStatus)
	r.Post("/keys/reset", h.keyReset)

	return r
}
