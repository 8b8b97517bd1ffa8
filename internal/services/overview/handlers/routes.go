package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers overview and insight routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/overview", func(r chi.Router) {
		r.Get("/", h.HandleOverview)
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandlePortfolioOverview(w, r, chi.URLParam(r, "id"))
		})
	})

	r.Get("/insights/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleAssetInsight(w, r, chi.URLParam(r, "id"))
	})
}
