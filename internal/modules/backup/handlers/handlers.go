// Package handlers provides HTTP handlers for on-demand backup and restore.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/modules/backup"
	"github.com/ozgurkara/portfoy/internal/modules/portfolio"
)

// Handler handles backup HTTP requests.
type Handler struct {
	service    *backup.Service
	portfolios *portfolio.Service
	log        zerolog.Logger
}

// NewHandler creates a new backup handler.
func NewHandler(service *backup.Service, portfolios *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:    service,
		portfolios: portfolios,
		log:        log.With().Str("handler", "backup").Logger(),
	}
}

// HandleStatus handles GET /api/backup
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.service.Enabled()})
}

// HandleRun handles POST /api/backup/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !h.service.Enabled() {
		h.writeError(w, http.StatusConflict, "backup is not configured")
		return
	}

	if err := h.service.Run(r.Context()); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "uploaded"})
}

// HandleRestore handles POST /api/backup/restore
// Downloads the named backup object and imports it, replacing all portfolios.
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		h.writeError(w, http.StatusBadRequest, "object key is required")
		return
	}

	envelope, err := h.service.Fetch(r.Context(), req.Key)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := h.portfolios.Import(envelope); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info().Str("key", req.Key).Msg("Backup restored")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "restored", "key": req.Key})
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
