// Package handlers provides HTTP handlers for user settings.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/modules/settings"
)

// Handler handles settings HTTP requests.
type Handler struct {
	repo *settings.Repository
	log  zerolog.Logger
}

// NewHandler creates a new settings handler.
func NewHandler(repo *settings.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "settings").Logger(),
	}
}

// HandleGetAll handles GET /api/settings
// Returns the known settings with defaults applied for missing keys.
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	values := make(map[string]string, len(settings.SettingDefaults))
	for key := range settings.SettingDefaults {
		value, err := h.repo.GetString(key, "")
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		values[key] = value
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"settings": values})
}

// HandleSet handles PUT /api/settings/{key}
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request, key string) {
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if key == settings.KeyRiskAppetite {
		switch req.Value {
		case "low", "medium", "high":
		default:
			h.writeError(w, http.StatusBadRequest, "risk_appetite must be low, medium or high")
			return
		}
	}

	if err := h.repo.Set(key, req.Value); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
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
