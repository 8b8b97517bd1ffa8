package valuation

import "github.com/ozgurkara/portfoy/internal/domain"

// gramReferenceSymbol is the quote every gold sub-denomination is derived
// from when it has no direct quote of its own.
const gramReferenceSymbol = "GRAM-ALTIN"

// goldMultipliers maps gold sub-denominations to their gram-price multiplier.
// The coin multipliers follow jeweller market convention (fineness included),
// not raw coin weight. The troy ounce is pure weight.
var goldMultipliers = map[string]float64{
	"GRAM-ALTIN": 1.0,
	"CEYREK":     1.6,
	"YARIM":      3.2,
	"TAM":        6.4,
	"CUMHURIYET": 6.6,
	"ONS":        31.1035,
}

// goldUnitPrice resolves the unit price for a gold holding. A direct quote
// for the symbol wins (the ounce future quotes in USD); otherwise the gram
// reference quote is scaled by the sub-denomination multiplier.
func goldUnitPrice(symbol string, quotes map[string]domain.Quote) (price float64, currency domain.Currency, change24h float64, ok bool) {
	if q, found := quotes[symbol]; found {
		return q.Price, q.Currency, q.Change24h, true
	}

	mult, known := goldMultipliers[symbol]
	if !known {
		return 0, domain.TRY, 0, false
	}

	gram, found := quotes[gramReferenceSymbol]
	if !found {
		return 0, domain.TRY, 0, false
	}

	return gram.Price * mult, gram.Currency, gram.Change24h, true
}
