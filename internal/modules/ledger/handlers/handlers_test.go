package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ozgurkara/portfoy/internal/domain"
	"github.com/ozgurkara/portfoy/internal/modules/ledger"
	"github.com/ozgurkara/portfoy/internal/modules/portfolio"
	"github.com/ozgurkara/portfoy/internal/modules/settings"
)

type fakeResolver struct {
	live       float64
	historical float64
	histErr    error
	askedDate  time.Time
}

func (f *fakeResolver) UsdTryRate() (float64, error) {
	return f.live, nil
}

func (f *fakeResolver) FetchHistoricalRate(_ context.Context, date time.Time) (float64, error) {
	f.askedDate = date
	if f.histErr != nil {
		return 0, f.histErr
	}
	return f.historical, nil
}

func newTestHandler(t *testing.T, resolver *fakeResolver) (*chi.Mux, *ledger.Service, *domain.Portfolio) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE portfolios (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			cash_balance REAL NOT NULL DEFAULT 0,
			created_at   INTEGER NOT NULL
		);
		CREATE TABLE holdings (
			id                TEXT PRIMARY KEY,
			portfolio_id      TEXT NOT NULL,
			symbol            TEXT NOT NULL,
			name              TEXT,
			asset_type        TEXT NOT NULL,
			amount            REAL NOT NULL,
			avg_cost          REAL NOT NULL,
			currency          TEXT NOT NULL,
			original_cost_try REAL,
			original_cost_usd REAL,
			bes_principal     REAL NOT NULL DEFAULT 0,
			bes_yield         REAL NOT NULL DEFAULT 0,
			custom_price      REAL,
			date_added        INTEGER NOT NULL,
			last_updated      INTEGER NOT NULL
		);
		CREATE TABLE realized_trades (
			id           TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL,
			symbol       TEXT NOT NULL,
			asset_type   TEXT NOT NULL,
			currency     TEXT NOT NULL,
			amount       REAL NOT NULL,
			buy_price    REAL NOT NULL,
			sell_price   REAL NOT NULL,
			profit_try   REAL NOT NULL,
			sold_at      INTEGER NOT NULL
		);
		CREATE TABLE settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	require.NoError(t, err)

	log := zerolog.New(nil).Level(zerolog.Disabled)

	ledgerRepo := ledger.NewRepository(db, log)
	ledgerSvc := ledger.NewService(ledgerRepo, db, nil, log)
	portfolioSvc := portfolio.NewService(portfolio.NewRepository(db, log), ledgerRepo, settings.NewRepository(db, log), db, log)

	p, err := portfolioSvc.Create("Main")
	require.NoError(t, err)

	h := NewHandler(ledgerSvc, ledgerRepo, portfolioSvc, resolver, log)
	router := chi.NewRouter()
	router.Route("/api", h.RegisterRoutes)

	return router, ledgerSvc, p
}

func sellRequest(t *testing.T, router *chi.Mux, holdingID, body string) (*httptest.ResponseRecorder, domain.RealizedTrade) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/holdings/"+holdingID+"/sell", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var trade domain.RealizedTrade
	if rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&trade))
	}
	return rec, trade
}

func TestHandleSellResolvesSaleDateRate(t *testing.T) {
	resolver := &fakeResolver{live: 40, historical: 30}
	router, ledgerSvc, p := newTestHandler(t, resolver)

	h, err := ledgerSvc.AddOrMerge(ledger.AddParams{
		PortfolioID: p.ID,
		Symbol:      "AAPL",
		Type:        domain.AssetStock,
		Amount:      10,
		UnitCost:    100,
		Currency:    domain.USD,
	})
	require.NoError(t, err)

	rec, trade := sellRequest(t, router, h.ID,
		`{"amount": 10, "sellPrice": 150, "soldAt": "2024-01-15"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// 10 * (150-100) = 500 USD profit at the sale-date rate, not the live one.
	assert.InDelta(t, 15000.0, trade.ProfitTry, 1e-9)
	assert.Equal(t, "2024-01-15", resolver.askedDate.Format("2006-01-02"))
}

func TestHandleSellExplicitRateWins(t *testing.T) {
	resolver := &fakeResolver{live: 40, historical: 30}
	router, ledgerSvc, p := newTestHandler(t, resolver)

	h, err := ledgerSvc.AddOrMerge(ledger.AddParams{
		PortfolioID: p.ID,
		Symbol:      "AAPL",
		Type:        domain.AssetStock,
		Amount:      10,
		UnitCost:    100,
		Currency:    domain.USD,
	})
	require.NoError(t, err)

	rec, trade := sellRequest(t, router, h.ID,
		`{"amount": 10, "sellPrice": 150, "soldAt": "2024-01-15", "historicalFxRate": 25}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.InDelta(t, 12500.0, trade.ProfitTry, 1e-9)
	assert.True(t, resolver.askedDate.IsZero(), "resolver should not be consulted when a rate is supplied")
}

func TestHandleSellFallsBackToLiveRate(t *testing.T) {
	resolver := &fakeResolver{live: 40, histErr: errors.New("rate source down")}
	router, ledgerSvc, p := newTestHandler(t, resolver)

	h, err := ledgerSvc.AddOrMerge(ledger.AddParams{
		PortfolioID: p.ID,
		Symbol:      "MSFT",
		Type:        domain.AssetStock,
		Amount:      5,
		UnitCost:    200,
		Currency:    domain.USD,
	})
	require.NoError(t, err)

	rec, trade := sellRequest(t, router, h.ID,
		`{"amount": 5, "sellPrice": 300, "soldAt": "2024-01-15"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// 5 * (300-200) = 500 USD profit at the live rate.
	assert.InDelta(t, 20000.0, trade.ProfitTry, 1e-9)
}

func TestHandleSellTryHoldingSkipsResolver(t *testing.T) {
	resolver := &fakeResolver{live: 40, historical: 30}
	router, ledgerSvc, p := newTestHandler(t, resolver)

	h, err := ledgerSvc.AddOrMerge(ledger.AddParams{
		PortfolioID: p.ID,
		Symbol:      "THYAO",
		Type:        domain.AssetStock,
		Amount:      100,
		UnitCost:    250,
		Currency:    domain.TRY,
	})
	require.NoError(t, err)

	rec, trade := sellRequest(t, router, h.ID,
		`{"amount": 100, "sellPrice": 300, "soldAt": "2024-01-15"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.InDelta(t, 5000.0, trade.ProfitTry, 1e-9)
	assert.True(t, resolver.askedDate.IsZero(), "TRY sales need no FX rate")
}
