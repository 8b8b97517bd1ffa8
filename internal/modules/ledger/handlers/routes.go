package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers holding and trade routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/holdings", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleAdd)
		r.Post("/reset", h.HandleReset)
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleEdit(w, r, chi.URLParam(r, "id"))
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleDelete(w, r, chi.URLParam(r, "id"))
		})
		r.Post("/{id}/sell", func(w http.ResponseWriter, r *http.Request) {
			h.HandleSell(w, r, chi.URLParam(r, "id"))
		})
	})

	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleTrades)
		r.Delete("/", h.HandleClearTrades)
	})
}
