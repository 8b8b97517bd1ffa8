package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers portfolio, export and import routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/active", h.HandleGetActive)
		r.Put("/{id}/activate", func(w http.ResponseWriter, r *http.Request) {
			h.HandleActivate(w, r, chi.URLParam(r, "id"))
		})
		r.Put("/{id}/cash", func(w http.ResponseWriter, r *http.Request) {
			h.HandleSetCash(w, r, chi.URLParam(r, "id"))
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleDelete(w, r, chi.URLParam(r, "id"))
		})
	})

	r.Get("/export", h.HandleExport)
	r.Post("/import", h.HandleImport)
}
