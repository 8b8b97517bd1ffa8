package portfolio

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ozgurkara/portfoy/internal/domain"
	"github.com/ozgurkara/portfoy/internal/modules/ledger"
	"github.com/ozgurkara/portfoy/internal/modules/settings"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// One connection so the in-memory database and its pragmas are shared.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;

		CREATE TABLE portfolios (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			cash_balance REAL NOT NULL DEFAULT 0,
			created_at   INTEGER NOT NULL
		);

		CREATE TABLE holdings (
			id                TEXT PRIMARY KEY,
			portfolio_id      TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
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
		CREATE UNIQUE INDEX idx_holdings_portfolio_symbol ON holdings(portfolio_id, symbol);

		CREATE TABLE realized_trades (
			id           TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
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
			key         TEXT PRIMARY KEY,
			value       TEXT NOT NULL,
			description TEXT,
			updated_at  INTEGER NOT NULL
		);
	`)
	require.NoError(t, err)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(db, log)
	ledgerRepo := ledger.NewRepository(db, log)
	settingsRepo := settings.NewRepository(db, log)
	return NewService(repo, ledgerRepo, settingsRepo, db, log)
}

func seedLedger(t *testing.T, svc *Service, portfolioID string) {
	t.Helper()

	ledgerSvc := ledger.NewService(svc.ledger, svc.db, nil, zerolog.New(nil).Level(zerolog.Disabled))
	h, err := ledgerSvc.AddOrMerge(ledger.AddParams{
		PortfolioID: portfolioID,
		Symbol:      "THYAO",
		Type:        domain.AssetStock,
		Amount:      10,
		UnitCost:    100,
		Currency:    domain.TRY,
	})
	require.NoError(t, err)

	_, err = ledgerSvc.Sell(h.ID, ledger.SellParams{Amount: 2, SellPrice: 130}, 0)
	require.NoError(t, err)
}

func TestCreateFirstBecomesActive(t *testing.T) {
	svc := newTestService(t)

	p1, err := svc.Create("Main")
	require.NoError(t, err)

	active, err := svc.GetActive()
	require.NoError(t, err)
	assert.Equal(t, p1.ID, active.ID)

	// A second portfolio does not steal the active slot.
	_, err = svc.Create("Side")
	require.NoError(t, err)

	active, err = svc.GetActive()
	require.NoError(t, err)
	assert.Equal(t, p1.ID, active.ID)
}

func TestDeleteActiveFallsBack(t *testing.T) {
	svc := newTestService(t)

	p1, err := svc.Create("Main")
	require.NoError(t, err)
	p2, err := svc.Create("Side")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(p1.ID))

	active, err := svc.GetActive()
	require.NoError(t, err)
	assert.Equal(t, p2.ID, active.ID)

	require.NoError(t, svc.Delete(p2.ID))
	_, err = svc.GetActive()
	assert.ErrorIs(t, err, domain.ErrPortfolioNotFound)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestService(t)

	p, err := src.Create("Main")
	require.NoError(t, err)
	require.NoError(t, src.SetCashBalance(p.ID, 5000))
	seedLedger(t, src, p.ID)

	envelope, err := src.Export()
	require.NoError(t, err)
	assert.Equal(t, "2", envelope.Version)
	assert.Equal(t, p.ID, envelope.ActivePortfolioID)
	require.Len(t, envelope.Portfolios, 1)
	assert.Len(t, envelope.Portfolios[0].Items, 1)
	assert.Len(t, envelope.Portfolios[0].Trades, 1)

	// Serialize and parse like a real file round trip.
	data, err := json.Marshal(envelope)
	require.NoError(t, err)
	parsed, err := ParseEnvelope(data)
	require.NoError(t, err)

	dst := newTestService(t)
	_, err = dst.Create("ToBeReplaced")
	require.NoError(t, err)

	require.NoError(t, dst.Import(parsed))

	list, err := dst.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Main", list[0].Name)
	assert.InDelta(t, 5000.0, list[0].CashBalance, 1e-9)

	active, err := dst.GetActive()
	require.NoError(t, err)
	assert.Equal(t, p.ID, active.ID)

	holdings, err := dst.ledger.GetHoldings(p.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "THYAO", holdings[0].Symbol)
	assert.InDelta(t, 8.0, holdings[0].Amount, 1e-9)

	trades, err := dst.ledger.GetRealizedTrades(p.ID)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.InDelta(t, 60.0, trades[0].ProfitTry, 1e-9)
}

func TestParseEnvelopeRejections(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"missing version", `{"exportDate":"2026-08-29T00:00:00Z","portfolios":[]}`},
		{"missing exportDate", `{"version":"2","portfolios":[]}`},
		{"portfolios missing", `{"version":"2","exportDate":"2026-08-29T00:00:00Z"}`},
		{"portfolio without id", `{"version":"2","exportDate":"2026-08-29T00:00:00Z","portfolios":[{"name":"Main","items":[]}]}`},
		{"portfolio without name", `{"version":"2","exportDate":"2026-08-29T00:00:00Z","portfolios":[{"id":"p1","items":[]}]}`},
		{"portfolio without items", `{"version":"2","exportDate":"2026-08-29T00:00:00Z","portfolios":[{"id":"p1","name":"Main"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope([]byte(tt.json))
			assert.ErrorIs(t, err, domain.ErrInvalidImportShape)
		})
	}
}

func TestParseEnvelopeEmptyListsAreValid(t *testing.T) {
	envelope, err := ParseEnvelope([]byte(`{"version":"2","exportDate":"2026-08-29T00:00:00Z","portfolios":[]}`))
	require.NoError(t, err)
	assert.Empty(t, envelope.Portfolios)

	envelope, err = ParseEnvelope([]byte(`{"version":"2","exportDate":"2026-08-29T00:00:00Z","portfolios":[{"id":"p1","name":"Main","items":[]}]}`))
	require.NoError(t, err)
	require.Len(t, envelope.Portfolios, 1)
	assert.Empty(t, envelope.Portfolios[0].Items)
}
