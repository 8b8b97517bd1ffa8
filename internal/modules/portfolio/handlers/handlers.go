// Package handlers provides HTTP handlers for portfolio management,
// including export and import of the JSON envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/domain"
	"github.com/ozgurkara/portfoy/internal/modules/portfolio"
)

// maxImportBytes bounds the import request body.
const maxImportBytes = 16 << 20

// Handler handles portfolio HTTP requests.
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler.
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleList handles GET /api/portfolios
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"portfolios": list})
}

// HandleCreate handles POST /api/portfolios
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.service.Create(req.Name)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, p)
}

// HandleGetActive handles GET /api/portfolios/active
func (h *Handler) HandleGetActive(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetActive()
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// HandleActivate handles PUT /api/portfolios/{id}/activate
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.SetActive(id); err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "activated", "id": id})
}

// HandleDelete handles DELETE /api/portfolios/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Delete(id); err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// HandleSetCash handles PUT /api/portfolios/{id}/cash
func (h *Handler) HandleSetCash(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Balance float64 `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Balance < 0 {
		h.writeError(w, http.StatusBadRequest, "cash balance cannot be negative")
		return
	}

	if err := h.service.SetCashBalance(id, req.Balance); err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "balance": req.Balance})
}

// HandleExport handles GET /api/export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	envelope, err := h.service.Export()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="portfoy-export.json"`)
	h.writeJSON(w, http.StatusOK, envelope)
}

// HandleImport handles POST /api/import
// The body is a previously exported envelope; import replaces all portfolios.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	envelope, err := portfolio.ParseEnvelope(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Import(envelope); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info().Int("portfolios", len(envelope.Portfolios)).Msg("Import applied")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "imported",
		"portfolios": len(envelope.Portfolios),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPortfolioNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidImportShape):
		return http.StatusBadRequest
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
