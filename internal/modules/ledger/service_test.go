package ledger

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ozgurkara/portfoy/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
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
		CREATE UNIQUE INDEX idx_holdings_portfolio_symbol ON holdings(portfolio_id, symbol);

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
	`)
	require.NoError(t, err)

	return db
}

func newTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()

	db := newTestDB(t)
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(db, log)
	return NewService(repo, db, nil, log), repo
}

func TestAddOrMergeWeightedAverage(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1",
		Symbol:      "THYAO",
		Type:        domain.AssetStock,
		Amount:      10,
		UnitCost:    100,
		Currency:    domain.TRY,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, first.Amount)
	assert.Equal(t, 100.0, first.AvgCost)

	merged, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1",
		Symbol:      "thyao", // normalization folds into the same position
		Type:        domain.AssetStock,
		Amount:      5,
		UnitCost:    130,
		Currency:    domain.TRY,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 15.0, merged.Amount)
	assert.InDelta(t, 110.0, merged.AvgCost, 1e-9)
}

func TestAddOrMergeCurrencyMismatch(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "BTC", Type: domain.AssetCrypto,
		Amount: 1, UnitCost: 60000, Currency: domain.USD,
	})
	require.NoError(t, err)

	_, err = svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "BTC", Type: domain.AssetCrypto,
		Amount: 1, UnitCost: 2000000, Currency: domain.TRY,
	})
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}

func TestAddOrMergeAccumulatesCostSnapshots(t *testing.T) {
	svc, _ := newTestService(t)

	try1 := 3000.0
	_, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "AAPL", Type: domain.AssetStock,
		Amount: 10, UnitCost: 10, Currency: domain.USD,
		OriginalCostTry: &try1,
	})
	require.NoError(t, err)

	try2 := 4000.0
	merged, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "AAPL", Type: domain.AssetStock,
		Amount: 10, UnitCost: 12, Currency: domain.USD,
		OriginalCostTry: &try2,
	})
	require.NoError(t, err)

	require.NotNil(t, merged.OriginalCostTry)
	assert.InDelta(t, 7000.0, *merged.OriginalCostTry, 1e-9)
}

func TestSellPartialKeepsAvgCost(t *testing.T) {
	svc, repo := newTestService(t)

	holding, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "THYAO", Type: domain.AssetStock,
		Amount: 15, UnitCost: 110, Currency: domain.TRY,
	})
	require.NoError(t, err)

	trade, err := svc.Sell(holding.ID, SellParams{Amount: 5, SellPrice: 150}, 0)
	require.NoError(t, err)

	assert.InDelta(t, 200.0, trade.ProfitTry, 1e-9)
	assert.Equal(t, 110.0, trade.BuyPrice)

	remaining, err := repo.GetHolding(holding.ID)
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.InDelta(t, 10.0, remaining.Amount, 1e-9)
	assert.Equal(t, 110.0, remaining.AvgCost) // a sell never moves the average cost
}

func TestSellMoreThanOwned(t *testing.T) {
	svc, _ := newTestService(t)

	holding, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "GARAN", Type: domain.AssetStock,
		Amount: 3, UnitCost: 50, Currency: domain.TRY,
	})
	require.NoError(t, err)

	_, err = svc.Sell(holding.ID, SellParams{Amount: 4, SellPrice: 60}, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
}

func TestSellFullLiquidationRemovesHolding(t *testing.T) {
	svc, repo := newTestService(t)

	holding, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "GARAN", Type: domain.AssetStock,
		Amount: 3, UnitCost: 50, Currency: domain.TRY,
	})
	require.NoError(t, err)

	_, err = svc.Sell(holding.ID, SellParams{Amount: 3, SellPrice: 55}, 0)
	require.NoError(t, err)

	gone, err := repo.GetHolding(holding.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	trades, err := repo.GetRealizedTrades("p1")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.InDelta(t, 15.0, trades[0].ProfitTry, 1e-9)
}

func TestSellUsdPrefersHistoricalRate(t *testing.T) {
	svc, _ := newTestService(t)

	holding, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "AAPL", Type: domain.AssetStock,
		Amount: 10, UnitCost: 100, Currency: domain.USD,
	})
	require.NoError(t, err)

	historical := 30.0
	trade, err := svc.Sell(holding.ID, SellParams{
		Amount: 10, SellPrice: 110,
		SoldAt:           time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		HistoricalFxRate: &historical,
	}, 40.0)
	require.NoError(t, err)

	// Profit 100 USD converted at the sale-date rate, not the live one.
	assert.InDelta(t, 3000.0, trade.ProfitTry, 1e-9)
}

func TestSellUsdWithoutAnyRate(t *testing.T) {
	svc, _ := newTestService(t)

	holding, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "AAPL", Type: domain.AssetStock,
		Amount: 1, UnitCost: 100, Currency: domain.USD,
	})
	require.NoError(t, err)

	_, err = svc.Sell(holding.ID, SellParams{Amount: 1, SellPrice: 110}, 0)
	assert.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestEditOverwritesWithoutMergeMath(t *testing.T) {
	svc, _ := newTestService(t)

	holding, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "THYAO", Type: domain.AssetStock,
		Amount: 10, UnitCost: 100, Currency: domain.TRY,
	})
	require.NoError(t, err)

	edited, err := svc.Edit(holding.ID, EditParams{Amount: 20, AvgCost: 95})
	require.NoError(t, err)

	assert.Equal(t, 20.0, edited.Amount)
	assert.Equal(t, 95.0, edited.AvgCost)
}

func TestEditMissingHolding(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Edit("nope", EditParams{Amount: 1, AvgCost: 1})
	assert.ErrorIs(t, err, domain.ErrHoldingNotFound)
}

func TestDeleteLeavesTradesIntact(t *testing.T) {
	svc, repo := newTestService(t)

	holding, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "THYAO", Type: domain.AssetStock,
		Amount: 10, UnitCost: 100, Currency: domain.TRY,
	})
	require.NoError(t, err)

	_, err = svc.Sell(holding.ID, SellParams{Amount: 2, SellPrice: 120}, 0)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(holding.ID))

	holdings, err := repo.GetHoldings("p1")
	require.NoError(t, err)
	assert.Empty(t, holdings)

	trades, err := repo.GetRealizedTrades("p1")
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestResetAllWipesEverything(t *testing.T) {
	svc, repo := newTestService(t)

	holding, err := svc.AddOrMerge(AddParams{
		PortfolioID: "p1", Symbol: "THYAO", Type: domain.AssetStock,
		Amount: 10, UnitCost: 100, Currency: domain.TRY,
	})
	require.NoError(t, err)

	_, err = svc.Sell(holding.ID, SellParams{Amount: 2, SellPrice: 120}, 0)
	require.NoError(t, err)

	require.NoError(t, svc.ResetAll("p1"))

	holdings, err := repo.GetHoldings("p1")
	require.NoError(t, err)
	assert.Empty(t, holdings)

	trades, err := repo.GetRealizedTrades("p1")
	require.NoError(t, err)
	assert.Empty(t, trades)
}
