package valuation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozgurkara/portfoy/internal/domain"
)

func testEngine() *Engine {
	return NewEngine(35.0, false, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestValuateTryStock(t *testing.T) {
	e := testEngine()

	h := domain.Holding{
		ID: "h1", Symbol: "THYAO", Type: domain.AssetStock,
		Amount: 10, AvgCost: 100, Currency: domain.TRY,
	}
	quotes := map[string]domain.Quote{
		"THYAO": {Symbol: "THYAO", Price: 120, Currency: domain.TRY, Change24h: 1.5},
	}

	v := e.Valuate(h, quotes, 40)

	require.True(t, v.PriceKnown)
	assert.InDelta(t, 1200.0, v.ValueTry, 1e-9)
	assert.InDelta(t, 30.0, v.ValueUsd, 1e-9)
	assert.InDelta(t, 200.0, v.ProfitTry, 1e-9)
	assert.InDelta(t, 20.0, v.ProfitPctTry, 1e-9)
	assert.InDelta(t, 1.5, v.Change24h, 1e-9)
}

func TestValuateCryptoUsdBasis(t *testing.T) {
	e := testEngine()

	h := domain.Holding{
		ID: "h1", Symbol: "BTC", Type: domain.AssetCrypto,
		Amount: 0.5, AvgCost: 60000, Currency: domain.USD,
	}
	quotes := map[string]domain.Quote{
		"BTC": {Symbol: "BTC", Price: 70000, Currency: domain.USD},
	}

	v := e.Valuate(h, quotes, 40)

	assert.InDelta(t, 35000.0, v.ValueUsd, 1e-9)
	assert.InDelta(t, 1400000.0, v.ValueTry, 1e-9)
	assert.InDelta(t, 5000.0, v.ProfitUsd, 1e-9)
}

func TestValuateUsdQuoteForTryHolding(t *testing.T) {
	e := testEngine()

	// Metal futures quote in USD even when the position is kept in TRY.
	h := domain.Holding{
		ID: "h1", Symbol: "GUMUS", Type: domain.AssetMetal,
		Amount: 10, AvgCost: 1000, Currency: domain.TRY,
	}
	quotes := map[string]domain.Quote{
		"GUMUS": {Symbol: "GUMUS", Price: 30, Currency: domain.USD},
	}

	v := e.Valuate(h, quotes, 40)

	require.True(t, v.PriceKnown)
	assert.InDelta(t, 1200.0, v.PriceTry, 1e-9)
	assert.InDelta(t, 30.0, v.PriceUsd, 1e-9)
	assert.InDelta(t, 12000.0, v.ValueTry, 1e-9)
	assert.InDelta(t, 2000.0, v.ProfitTry, 1e-9)
	assert.InDelta(t, 20.0, v.ProfitPctTry, 1e-9)
}

func TestValuateGoldOunce(t *testing.T) {
	e := testEngine()

	h := domain.Holding{
		ID: "h1", Symbol: "ONS", Type: domain.AssetGold,
		Amount: 2, AvgCost: 90000, Currency: domain.TRY,
	}

	// The ounce future quotes directly in USD.
	v := e.Valuate(h, map[string]domain.Quote{
		"ONS": {Symbol: "ONS", Price: 2500, Currency: domain.USD},
	}, 40)
	require.True(t, v.PriceKnown)
	assert.InDelta(t, 100000.0, v.PriceTry, 1e-9)
	assert.InDelta(t, 200000.0, v.ValueTry, 1e-9)

	// Without a direct quote it derives from the gram reference by weight.
	v = e.Valuate(h, map[string]domain.Quote{
		"GRAM-ALTIN": {Symbol: "GRAM-ALTIN", Price: 3000, Currency: domain.TRY},
	}, 40)
	require.True(t, v.PriceKnown)
	assert.InDelta(t, 3000*31.1035, v.PriceTry, 1e-9)
}

func TestValuateBesIgnoresQuotes(t *testing.T) {
	e := testEngine()

	h := domain.Holding{
		ID: "h1", Symbol: "BES-1", Type: domain.AssetBES,
		Currency: domain.TRY, BesPrincipal: 10000, BesYield: 1500,
	}

	v := e.Valuate(h, nil, 40)

	require.True(t, v.PriceKnown)
	assert.InDelta(t, 11500.0, v.ValueTry, 1e-9)
	assert.InDelta(t, 10000.0, v.CostTry, 1e-9)
	assert.InDelta(t, 1500.0, v.ProfitTry, 1e-9)
	assert.InDelta(t, 15.0, v.ProfitPctTry, 1e-9)
}

func TestValuateGoldSubDenomination(t *testing.T) {
	e := testEngine()

	h := domain.Holding{
		ID: "h1", Symbol: "CEYREK", Type: domain.AssetGold,
		Amount: 2, AvgCost: 4000, Currency: domain.TRY,
	}
	quotes := map[string]domain.Quote{
		"GRAM-ALTIN": {Symbol: "GRAM-ALTIN", Price: 3000, Currency: domain.TRY, Change24h: 0.8},
	}

	v := e.Valuate(h, quotes, 40)

	require.True(t, v.PriceKnown)
	// Quarter coin trades at 1.6x the gram price.
	assert.InDelta(t, 4800.0, v.PriceTry, 1e-9)
	assert.InDelta(t, 9600.0, v.ValueTry, 1e-9)
	assert.InDelta(t, 0.8, v.Change24h, 1e-9)
}

func TestValuateGoldDirectQuoteWins(t *testing.T) {
	e := testEngine()

	h := domain.Holding{
		ID: "h1", Symbol: "CEYREK", Type: domain.AssetGold,
		Amount: 1, AvgCost: 4000, Currency: domain.TRY,
	}
	quotes := map[string]domain.Quote{
		"GRAM-ALTIN": {Symbol: "GRAM-ALTIN", Price: 3000, Currency: domain.TRY},
		"CEYREK":     {Symbol: "CEYREK", Price: 5000, Currency: domain.TRY},
	}

	v := e.Valuate(h, quotes, 40)

	assert.InDelta(t, 5000.0, v.PriceTry, 1e-9)
}

func TestValuateCustomPriceOverride(t *testing.T) {
	e := testEngine()

	price := 250.0
	h := domain.Holding{
		ID: "h1", Symbol: "VINTAGE", Type: domain.AssetCustom,
		Amount: 4, AvgCost: 200, Currency: domain.TRY, CustomPrice: &price,
	}

	v := e.Valuate(h, nil, 40)

	require.True(t, v.PriceKnown)
	assert.InDelta(t, 1000.0, v.ValueTry, 1e-9)
}

func TestValuateMissingQuoteIsPending(t *testing.T) {
	e := testEngine()

	h := domain.Holding{
		ID: "h1", Symbol: "OBSCURE", Type: domain.AssetStock,
		Amount: 10, AvgCost: 100, Currency: domain.TRY,
	}

	v := e.Valuate(h, map[string]domain.Quote{}, 40)

	assert.False(t, v.PriceKnown)
	assert.Zero(t, v.ValueTry)
	// Cost bases stay reported even without a price.
	assert.InDelta(t, 1000.0, v.CostTry, 1e-9)
	assert.InDelta(t, 25.0, v.CostUsd, 1e-9)
}

func TestValuateMissingQuoteFallsBackToCost(t *testing.T) {
	e := NewEngine(35.0, true, zerolog.New(nil).Level(zerolog.Disabled))

	h := domain.Holding{
		ID: "h1", Symbol: "OBSCURE", Type: domain.AssetStock,
		Amount: 10, AvgCost: 100, Currency: domain.TRY,
	}

	v := e.Valuate(h, map[string]domain.Quote{}, 40)

	require.True(t, v.PriceKnown)
	assert.InDelta(t, 1000.0, v.ValueTry, 1e-9)
	assert.Zero(t, v.ProfitTry)
}

func TestValuatePrefersOriginalCostSnapshot(t *testing.T) {
	e := testEngine()

	snapshot := 3000.0
	h := domain.Holding{
		ID: "h1", Symbol: "AAPL", Type: domain.AssetStock,
		Amount: 1, AvgCost: 100, Currency: domain.USD,
		OriginalCostTry: &snapshot,
	}
	quotes := map[string]domain.Quote{
		"AAPL": {Symbol: "AAPL", Price: 110, Currency: domain.USD},
	}

	v := e.Valuate(h, quotes, 40)

	// TRY cost comes from the acquisition-time snapshot (3000), not 100*40.
	assert.InDelta(t, 3000.0, v.CostTry, 1e-9)
	assert.InDelta(t, 4400.0-3000.0, v.ProfitTry, 1e-9)
	// USD profit is computed against the USD basis independently.
	assert.InDelta(t, 10.0, v.ProfitUsd, 1e-9)
}

func TestValuateZeroRateUsesFallback(t *testing.T) {
	e := testEngine()

	h := domain.Holding{
		ID: "h1", Symbol: "BTC", Type: domain.AssetCrypto,
		Amount: 1, AvgCost: 100, Currency: domain.USD,
	}
	quotes := map[string]domain.Quote{
		"BTC": {Symbol: "BTC", Price: 100, Currency: domain.USD},
	}

	v := e.Valuate(h, quotes, 0)

	assert.InDelta(t, 3500.0, v.ValueTry, 1e-9) // 100 * fallback 35
}

func TestConvert(t *testing.T) {
	try, err := ToTry(100, 40)
	require.NoError(t, err)
	assert.InDelta(t, 4000.0, try, 1e-9)

	_, err = ToTry(100, 0)
	assert.ErrorIs(t, err, domain.ErrRateUnavailable)

	usd, err := ToUsd(4000, 40)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, usd, 1e-9)
}
