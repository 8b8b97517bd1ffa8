package valuation

import (
	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/domain"
)

// Engine values holdings against a quote snapshot. It is pure: it never
// mutates the ledger and never raises on missing data — a holding with no
// quote is reported with PriceKnown=false, not as a 100% loss.
type Engine struct {
	// fallbackUsdTryRate replaces a missing or non-positive rate. It is an
	// explicit configuration value, not a constant buried in the math.
	fallbackUsdTryRate float64

	// fallbackToAvgCost, when enabled, values quoteless holdings at their
	// average cost instead of reporting them pending.
	fallbackToAvgCost bool

	log zerolog.Logger
}

// NewEngine creates a valuation engine.
func NewEngine(fallbackUsdTryRate float64, fallbackToAvgCost bool, log zerolog.Logger) *Engine {
	return &Engine{
		fallbackUsdTryRate: fallbackUsdTryRate,
		fallbackToAvgCost:  fallbackToAvgCost,
		log:                log.With().Str("service", "valuation").Logger(),
	}
}

// ValuateAll values every holding against the same quote snapshot, so one
// refresh cycle produces a consistent view.
func (e *Engine) ValuateAll(holdings []domain.Holding, quotes map[string]domain.Quote, usdTryRate float64) []domain.PositionValuation {
	valuations := make([]domain.PositionValuation, 0, len(holdings))
	for _, h := range holdings {
		valuations = append(valuations, e.Valuate(h, quotes, usdTryRate))
	}
	return valuations
}

// Valuate computes the valuation of one holding.
//
// Profit in TRY and profit in USD are computed independently, each against
// its own cost basis. They are allowed to diverge when a period-specific cost
// snapshot exists: the divergence shows what holding the FX exposure was
// worth versus converting at today's rate.
func (e *Engine) Valuate(h domain.Holding, quotes map[string]domain.Quote, usdTryRate float64) domain.PositionValuation {
	if usdTryRate <= 0 {
		usdTryRate = e.fallbackUsdTryRate
	}

	v := domain.PositionValuation{
		HoldingID: h.ID,
		Symbol:    h.Symbol,
		Name:      h.Name,
		Type:      h.Type,
		Amount:    h.Amount,
		Currency:  h.Currency,
	}

	// BES accounts have no unit-price concept: the provider reports the
	// account total as principal + accrued yield.
	if h.Type == domain.AssetBES {
		v.PriceKnown = true
		v.ValueTry = h.BesPrincipal + h.BesYield
		v.ValueUsd = v.ValueTry / usdTryRate
		v.CostTry = h.BesPrincipal
		v.CostUsd = costBasisUsd(h, usdTryRate)
		v.ProfitTry = v.ValueTry - v.CostTry
		v.ProfitUsd = v.ValueUsd - v.CostUsd
		v.ProfitPctTry = percentOf(v.ProfitTry, v.CostTry)
		v.ProfitPctUsd = percentOf(v.ProfitUsd, v.CostUsd)
		return v
	}

	priceNative, quoteCurrency, change24h, known := e.unitPrice(h, quotes)
	v.Change24h = change24h

	if !known {
		if !e.fallbackToAvgCost {
			// Pending state: cost bases are still reported so the UI can show
			// what is known without inventing a price.
			v.CostTry = costBasisTry(h, usdTryRate)
			v.CostUsd = costBasisUsd(h, usdTryRate)
			return v
		}
		// Documented last-resort fallback: value the position at cost.
		priceNative = h.AvgCost
		quoteCurrency = h.Currency
	}

	v.PriceKnown = true

	// The quote's own currency decides the conversion direction. Metal and
	// ounce-gold futures and USD forex pairs quote in USD even when the
	// holding is recorded in TRY.
	if quoteCurrency == domain.USD {
		v.PriceUsd = priceNative
		v.PriceTry = priceNative * usdTryRate
	} else {
		v.PriceTry = priceNative
		v.PriceUsd = priceNative / usdTryRate
	}

	v.ValueTry = h.Amount * v.PriceTry
	v.ValueUsd = h.Amount * v.PriceUsd
	v.CostTry = costBasisTry(h, usdTryRate)
	v.CostUsd = costBasisUsd(h, usdTryRate)

	v.ProfitTry = v.ValueTry - v.CostTry
	v.ProfitUsd = v.ValueUsd - v.CostUsd
	v.ProfitPctTry = percentOf(v.ProfitTry, v.CostTry)
	v.ProfitPctUsd = percentOf(v.ProfitUsd, v.CostUsd)

	return v
}

// unitPrice resolves the current unit price of a holding together with the
// currency the price is denominated in.
func (e *Engine) unitPrice(h domain.Holding, quotes map[string]domain.Quote) (price float64, currency domain.Currency, change24h float64, known bool) {
	// Manual override for custom assets without a market feed. The manual
	// price is entered in the holding's own currency.
	if h.Type == domain.AssetCustom {
		if h.CustomPrice != nil {
			return *h.CustomPrice, h.Currency, 0, true
		}
		return 0, h.Currency, 0, false
	}

	if h.Type == domain.AssetGold {
		return goldUnitPrice(h.Symbol, quotes)
	}

	q, found := quotes[h.Symbol]
	if !found {
		return 0, h.Currency, 0, false
	}
	return q.Price, q.Currency, q.Change24h, true
}

// costBasisTry returns the holding's total cost in TRY. A USD-denominated
// holding prefers its stored acquisition-time snapshot over a conversion at
// today's rate.
func costBasisTry(h domain.Holding, usdTryRate float64) float64 {
	if h.Type == domain.AssetBES {
		return h.BesPrincipal
	}
	if h.Currency == domain.TRY {
		return h.Amount * h.AvgCost
	}
	if h.OriginalCostTry != nil {
		return *h.OriginalCostTry
	}
	return h.Amount * h.AvgCost * usdTryRate
}

// costBasisUsd is the symmetric USD cost basis.
func costBasisUsd(h domain.Holding, usdTryRate float64) float64 {
	if h.Type == domain.AssetBES {
		return h.BesPrincipal / usdTryRate
	}
	if h.Currency == domain.USD {
		return h.Amount * h.AvgCost
	}
	if h.OriginalCostUsd != nil {
		return *h.OriginalCostUsd
	}
	return h.Amount * h.AvgCost / usdTryRate
}

// percentOf guards against a zero or negative cost basis.
func percentOf(profit, cost float64) float64 {
	if cost <= 0 {
		return 0
	}
	return profit / cost * 100
}
