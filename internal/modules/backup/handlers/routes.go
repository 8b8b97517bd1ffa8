package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers backup routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/backup", func(r chi.Router) {
		r.Get("/", h.HandleStatus)
		r.Post("/run", h.HandleRun)
		r.Post("/restore", h.HandleRestore)
	})
}
