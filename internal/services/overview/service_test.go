package overview

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ozgurkara/portfoy/internal/clients/binance"
	"github.com/ozgurkara/portfoy/internal/clients/tefas"
	"github.com/ozgurkara/portfoy/internal/clients/yahoo"
	"github.com/ozgurkara/portfoy/internal/domain"
	"github.com/ozgurkara/portfoy/internal/modules/analytics"
	"github.com/ozgurkara/portfoy/internal/modules/history"
	"github.com/ozgurkara/portfoy/internal/modules/ledger"
	"github.com/ozgurkara/portfoy/internal/modules/portfolio"
	"github.com/ozgurkara/portfoy/internal/modules/settings"
	"github.com/ozgurkara/portfoy/internal/modules/valuation"
	"github.com/ozgurkara/portfoy/internal/services/marketdata"
)

type fakeCrypto struct {
	tickers map[string]*binance.Ticker
}

func (f *fakeCrypto) GetTicker(_ context.Context, symbol string) (*binance.Ticker, error) {
	t, ok := f.tickers[symbol]
	if !ok {
		return nil, errors.New("ticker not found")
	}
	return t, nil
}

type noFunds struct{}

func (noFunds) GetFundPrice(context.Context, string) (*tefas.FundPrice, error) {
	return nil, errors.New("fund not found")
}

type noCharts struct{}

func (noCharts) GetQuote(context.Context, string) (*yahoo.ChartQuote, error) {
	return nil, errors.New("chart not found")
}

type fixedRates struct {
	rate float64
}

func (f fixedRates) GetRate(context.Context, string, string) (float64, error) {
	return f.rate, nil
}

func (f fixedRates) GetHistoricalRate(context.Context, string, string, time.Time) (float64, error) {
	return f.rate, nil
}

func newTestService(t *testing.T, crypto *fakeCrypto) (*Service, *ledger.Service, *domain.Portfolio) {
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
		CREATE TABLE daily_snapshots (
			portfolio_id  TEXT NOT NULL,
			snapshot_date TEXT NOT NULL,
			value_try     REAL NOT NULL,
			created_at    INTEGER NOT NULL,
			PRIMARY KEY (portfolio_id, snapshot_date)
		);
	`)
	require.NoError(t, err)

	log := zerolog.New(nil).Level(zerolog.Disabled)

	ledgerRepo := ledger.NewRepository(db, log)
	portfolioRepo := portfolio.NewRepository(db, log)
	settingsRepo := settings.NewRepository(db, log)
	historyRepo := history.NewRepository(db, log)

	ledgerSvc := ledger.NewService(ledgerRepo, db, historyRepo, log)
	portfolioSvc := portfolio.NewService(portfolioRepo, ledgerRepo, settingsRepo, db, log)
	marketSvc := marketdata.NewService(crypto, noFunds{}, noCharts{}, fixedRates{rate: 40}, 35, log)
	engine := valuation.NewEngine(35, false, log)
	analyzer := analytics.NewAnalyzer(log)

	svc := NewService(portfolioSvc, ledgerRepo, marketSvc, engine, analyzer, historyRepo, settingsRepo, log)

	p, err := portfolioSvc.Create("Main")
	require.NoError(t, err)

	return svc, ledgerSvc, p
}

func TestAssetInsightCryptoRecordedInTry(t *testing.T) {
	crypto := &fakeCrypto{tickers: map[string]*binance.Ticker{
		"BTC": {Symbol: "BTC", PriceUsd: 70000, FetchedAt: time.Now().Unix()},
	}}
	svc, ledgerSvc, p := newTestService(t, crypto)

	// Bought at 2,000,000 TRY per coin; the venue quotes USD.
	h, err := ledgerSvc.AddOrMerge(ledger.AddParams{
		PortfolioID: p.ID,
		Symbol:      "BTC",
		Type:        domain.AssetCrypto,
		Amount:      0.5,
		UnitCost:    2000000,
		Currency:    domain.TRY,
	})
	require.NoError(t, err)

	insight, err := svc.AssetInsight(context.Background(), h.ID)
	require.NoError(t, err)

	// 70000 USD * 40 = 2,800,000 TRY against a 2,000,000 TRY cost: up 40%.
	assert.Equal(t, "In profit", insight.Title)
	assert.Contains(t, insight.Message, "40.0%")
}

func TestAssetInsightUsdHoldingComparesInUsd(t *testing.T) {
	crypto := &fakeCrypto{tickers: map[string]*binance.Ticker{
		"ETH": {Symbol: "ETH", PriceUsd: 3500, FetchedAt: time.Now().Unix()},
	}}
	svc, ledgerSvc, p := newTestService(t, crypto)

	h, err := ledgerSvc.AddOrMerge(ledger.AddParams{
		PortfolioID: p.ID,
		Symbol:      "ETH",
		Type:        domain.AssetCrypto,
		Amount:      2,
		UnitCost:    5000,
		Currency:    domain.USD,
	})
	require.NoError(t, err)

	insight, err := svc.AssetInsight(context.Background(), h.ID)
	require.NoError(t, err)

	// 3500 against a 5000 USD cost: down 30%, a heavy loss in its own
	// currency regardless of what the TRY conversion looks like.
	assert.Equal(t, "Heavy loss", insight.Title)
}
