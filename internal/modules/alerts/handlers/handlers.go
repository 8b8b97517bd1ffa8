// Package handlers provides HTTP handlers for price alerts.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/modules/alerts"
	"github.com/ozgurkara/portfoy/internal/modules/portfolio"
)

// Handler handles alert HTTP requests on the active portfolio.
type Handler struct {
	service    *alerts.Service
	portfolios *portfolio.Service
	log        zerolog.Logger
}

// NewHandler creates a new alerts handler.
func NewHandler(service *alerts.Service, portfolios *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:    service,
		portfolios: portfolios,
		log:        log.With().Str("handler", "alerts").Logger(),
	}
}

// HandleList handles GET /api/alerts
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	active, err := h.portfolios.GetActive()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	list, err := h.service.List(active.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": list})
}

// HandleCreate handles POST /api/alerts
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req alerts.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	active, err := h.portfolios.GetActive()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	alert, err := h.service.Create(active.ID, req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, alert)
}

// HandleDelete handles DELETE /api/alerts/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	deleted, err := h.service.Delete(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "alert not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
