// Package handlers provides HTTP handlers for holding and trade operations.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/domain"
	"github.com/ozgurkara/portfoy/internal/modules/ledger"
	"github.com/ozgurkara/portfoy/internal/modules/portfolio"
)

// RateResolver supplies the live USD/TRY rate plus the rate of a past date,
// used when a sale is backdated without an explicit FX rate.
type RateResolver interface {
	domain.RateSource
	FetchHistoricalRate(ctx context.Context, date time.Time) (float64, error)
}

// Handler handles holding HTTP requests. All routes operate on the active
// portfolio.
type Handler struct {
	ledger     *ledger.Service
	repo       *ledger.Repository
	portfolios *portfolio.Service
	rates      RateResolver
	log        zerolog.Logger
}

// NewHandler creates a new ledger handler.
func NewHandler(ledgerSvc *ledger.Service, repo *ledger.Repository, portfolios *portfolio.Service, rates RateResolver, log zerolog.Logger) *Handler {
	return &Handler{
		ledger:     ledgerSvc,
		repo:       repo,
		portfolios: portfolios,
		rates:      rates,
		log:        log.With().Str("handler", "ledger").Logger(),
	}
}

// addRequest is the JSON shape of a buy.
type addRequest struct {
	Symbol          string   `json:"symbol"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Amount          float64  `json:"amount"`
	UnitCost        float64  `json:"unitCost"`
	Currency        string   `json:"currency"`
	DateAdded       string   `json:"dateAdded,omitempty"` // YYYY-MM-DD
	OriginalCostTry *float64 `json:"originalCostTry,omitempty"`
	OriginalCostUsd *float64 `json:"originalCostUsd,omitempty"`
	BesPrincipal    float64  `json:"besPrincipal,omitempty"`
	BesYield        float64  `json:"besYield,omitempty"`
	CustomPrice     *float64 `json:"customPrice,omitempty"`
}

// HandleList handles GET /api/holdings
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	active, err := h.portfolios.GetActive()
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	holdings, err := h.repo.GetHoldings(active.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"holdings": holdings})
}

// HandleAdd handles POST /api/holdings
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	active, err := h.portfolios.GetActive()
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	params := ledger.AddParams{
		PortfolioID:     active.ID,
		Symbol:          req.Symbol,
		Name:            req.Name,
		Type:            domain.AssetType(req.Type),
		Amount:          req.Amount,
		UnitCost:        req.UnitCost,
		Currency:        domain.Currency(req.Currency),
		OriginalCostTry: req.OriginalCostTry,
		OriginalCostUsd: req.OriginalCostUsd,
		BesPrincipal:    req.BesPrincipal,
		BesYield:        req.BesYield,
		CustomPrice:     req.CustomPrice,
	}
	if req.DateAdded != "" {
		t, err := time.Parse("2006-01-02", req.DateAdded)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "dateAdded must be YYYY-MM-DD")
			return
		}
		params.DateAdded = t
	}

	holding, err := h.ledger.AddOrMerge(params)
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, holding)
}

// HandleSell handles POST /api/holdings/{id}/sell
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Amount           float64  `json:"amount"`
		SellPrice        float64  `json:"sellPrice"`
		SoldAt           string   `json:"soldAt,omitempty"` // YYYY-MM-DD
		HistoricalFxRate *float64 `json:"historicalFxRate,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := ledger.SellParams{
		Amount:           req.Amount,
		SellPrice:        req.SellPrice,
		HistoricalFxRate: req.HistoricalFxRate,
	}
	if req.SoldAt != "" {
		t, err := time.Parse("2006-01-02", req.SoldAt)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "soldAt must be YYYY-MM-DD")
			return
		}
		params.SoldAt = t
	}

	// A backdated USD sale without an explicit FX rate converts at the rate
	// of the sale date, not today's.
	if !params.SoldAt.IsZero() && params.HistoricalFxRate == nil {
		holding, err := h.repo.GetHolding(id)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if holding != nil && holding.Currency == domain.USD {
			dated, err := h.rates.FetchHistoricalRate(r.Context(), params.SoldAt)
			if err != nil {
				h.log.Warn().Err(err).Str("soldAt", req.SoldAt).
					Msg("Historical rate unavailable, falling back to live rate")
			} else {
				params.HistoricalFxRate = &dated
			}
		}
	}

	rate, err := h.rates.UsdTryRate()
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	trade, err := h.ledger.Sell(id, params, rate)
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, trade)
}

// HandleEdit handles PUT /api/holdings/{id}
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Amount    float64  `json:"amount"`
		AvgCost   float64  `json:"avgCost"`
		NewDate   string   `json:"newDate,omitempty"` // YYYY-MM-DD
		NewFxRate *float64 `json:"newFxRate,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := ledger.EditParams{
		Amount:    req.Amount,
		AvgCost:   req.AvgCost,
		NewFxRate: req.NewFxRate,
	}
	if req.NewDate != "" {
		t, err := time.Parse("2006-01-02", req.NewDate)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "newDate must be YYYY-MM-DD")
			return
		}
		params.NewDate = &t
	}

	holding, err := h.ledger.Edit(id, params)
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, holding)
}

// HandleDelete handles DELETE /api/holdings/{id}
// Removes the position without recording a trade.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.ledger.Delete(id); err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// HandleTrades handles GET /api/trades
func (h *Handler) HandleTrades(w http.ResponseWriter, r *http.Request) {
	active, err := h.portfolios.GetActive()
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	trades, err := h.repo.GetRealizedTrades(active.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
}

// HandleClearTrades handles DELETE /api/trades
func (h *Handler) HandleClearTrades(w http.ResponseWriter, r *http.Request) {
	active, err := h.portfolios.GetActive()
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	if err := h.ledger.ClearHistory(active.ID); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// HandleReset handles POST /api/holdings/reset
// Wipes holdings, trades and the history series of the active portfolio.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	active, err := h.portfolios.GetActive()
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	if err := h.ledger.ResetAll(active.ID); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrHoldingNotFound),
		errors.Is(err, domain.ErrPortfolioNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientQuantity),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateUnavailable):
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
