// Package handlers provides HTTP handlers for the daily value series.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/modules/history"
	"github.com/ozgurkara/portfoy/internal/modules/portfolio"
)

// Handler handles history HTTP requests on the active portfolio.
type Handler struct {
	repo       *history.Repository
	portfolios *portfolio.Service
	log        zerolog.Logger
}

// NewHandler creates a new history handler.
func NewHandler(repo *history.Repository, portfolios *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		repo:       repo,
		portfolios: portfolios,
		log:        log.With().Str("handler", "history").Logger(),
	}
}

// HandleSeries handles GET /api/history
func (h *Handler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	active, err := h.portfolios.GetActive()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	series, err := h.repo.ReadSeries(active.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"series": series})
}

// HandleTrend handles GET /api/history/trend
// Returns the series with a moving-average overlay for charting.
func (h *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	active, err := h.portfolios.GetActive()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	series, err := h.repo.ReadSeries(active.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"trend": history.Trend(series)})
}

// HandleClear handles DELETE /api/history
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	active, err := h.portfolios.GetActive()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.repo.ClearSeries(active.ID); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
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
