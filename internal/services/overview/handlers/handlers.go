// Package handlers provides HTTP handlers for the live portfolio view.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/domain"
	"github.com/ozgurkara/portfoy/internal/services/overview"
)

// Handler handles overview HTTP requests.
type Handler struct {
	service *overview.Service
	log     zerolog.Logger
}

// NewHandler creates a new overview handler.
func NewHandler(service *overview.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "overview").Logger(),
	}
}

// HandleOverview handles GET /api/overview
// Builds the full view of the active portfolio with fresh quotes.
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.BuildActive(r.Context())
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// HandlePortfolioOverview handles GET /api/overview/{id}
func (h *Handler) HandlePortfolioOverview(w http.ResponseWriter, r *http.Request, id string) {
	view, err := h.service.Build(r.Context(), id)
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// HandleAssetInsight handles GET /api/insights/{id}
func (h *Handler) HandleAssetInsight(w http.ResponseWriter, r *http.Request, id string) {
	insight, err := h.service.AssetInsight(r.Context(), id)
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, insight)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrHoldingNotFound),
		errors.Is(err, domain.ErrPortfolioNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPriceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
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
