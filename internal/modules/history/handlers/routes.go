package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers history routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.HandleSeries)
		r.Get("/trend", h.HandleTrend)
		r.Delete("/", h.HandleClear)
	})
}
