package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers settings routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Put("/{key}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleSet(w, r, chi.URLParam(r, "key"))
		})
	})
}
