// Package insights is a stateless rule engine mapping portfolio statistics
// and per-instrument daily changes to a prioritized list of human-readable
// recommendations.
package insights

import (
	"fmt"
	"sort"

	"github.com/ozgurkara/portfoy/internal/modules/analytics"
)

// RecommendationType classifies the tone of a recommendation.
type RecommendationType string

const (
	TypeWarning     RecommendationType = "warning"
	TypeOpportunity RecommendationType = "opportunity"
	TypeInfo        RecommendationType = "info"
	TypeSuccess     RecommendationType = "success"
)

// Recommendation is one insight shown to the user. Lower Priority is shown
// first.
type Recommendation struct {
	ID          string             `json:"id"`
	Type        RecommendationType `json:"type"`
	Icon        string             `json:"icon"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Action      string             `json:"action,omitempty"`
	Priority    int                `json:"priority"`
}

// RiskAppetite selects the cash-ratio threshold: the lower the risk
// tolerance, the higher the cash level that triggers the idle-cash nudge.
type RiskAppetite string

const (
	RiskLow    RiskAppetite = "low"
	RiskMedium RiskAppetite = "medium"
	RiskHigh   RiskAppetite = "high"
)

// CashThreshold returns the cash-ratio percentage above which the idle-cash
// recommendation fires.
func (r RiskAppetite) CashThreshold() float64 {
	switch r {
	case RiskLow:
		return 30
	case RiskHigh:
		return 10
	default:
		return 20
	}
}

// Generate evaluates every rule independently against the analysis and the
// per-symbol 24h changes. All rules may fire simultaneously; the result is
// sorted ascending by priority, stable with respect to insertion order.
func Generate(analysis analytics.Analysis, dailyChanges map[string]float64, risk RiskAppetite) []Recommendation {
	recs := []Recommendation{}

	// Aggregate daily P/L
	if analysis.DailyPnlTry > 0 {
		recs = append(recs, Recommendation{
			ID:          "daily-pnl",
			Type:        TypeSuccess,
			Icon:        "trending-up",
			Title:       "Portfolio up today",
			Description: fmt.Sprintf("Today's positions are up about %.0f TRY in total.", analysis.DailyPnlTry),
			Priority:    0,
		})
	} else if analysis.DailyPnlTry < 0 {
		recs = append(recs, Recommendation{
			ID:          "daily-pnl",
			Type:        TypeInfo,
			Icon:        "trending-down",
			Title:       "Portfolio down today",
			Description: fmt.Sprintf("Today's positions are down about %.0f TRY in total.", -analysis.DailyPnlTry),
			Priority:    0,
		})
	}

	// Concentration in a single holding
	if analysis.TopHolding != nil && analysis.TopHolding.Percentage > 30 {
		recs = append(recs, Recommendation{
			ID:          "top-holding-concentration",
			Type:        TypeWarning,
			Icon:        "alert-triangle",
			Title:       "High concentration risk",
			Description: fmt.Sprintf("%s makes up %.1f%% of your portfolio. Consider diversifying.", analysis.TopHolding.Symbol, analysis.TopHolding.Percentage),
			Action:      "rebalance",
			Priority:    1,
		})
	}

	// Weekly trend
	if analysis.WeeklyChangePct < -3 {
		recs = append(recs, Recommendation{
			ID:          "weekly-down",
			Type:        TypeInfo,
			Icon:        "calendar",
			Title:       "Weak week",
			Description: fmt.Sprintf("Portfolio value is down %.1f%% over the last week.", -analysis.WeeklyChangePct),
			Priority:    2,
		})
	} else if analysis.WeeklyChangePct > 3 {
		recs = append(recs, Recommendation{
			ID:          "weekly-up",
			Type:        TypeSuccess,
			Icon:        "calendar",
			Title:       "Strong week",
			Description: fmt.Sprintf("Portfolio value is up %.1f%% over the last week.", analysis.WeeklyChangePct),
			Priority:    2,
		})
	}

	// Concentration in a single sector
	for _, sector := range analysis.Sectors {
		if sector.Percentage > 50 {
			recs = append(recs, Recommendation{
				ID:          "sector-concentration",
				Type:        TypeWarning,
				Icon:        "pie-chart",
				Title:       "Sector concentration",
				Description: fmt.Sprintf("%.1f%% of your portfolio is in %s.", sector.Percentage, sector.Sector),
				Action:      "rebalance",
				Priority:    2,
			})
			break // sectors are sorted descending, only one can exceed 50%
		}
	}

	// Idle cash
	if threshold := risk.CashThreshold(); analysis.CashRatio > threshold {
		recs = append(recs, Recommendation{
			ID:          "idle-cash",
			Type:        TypeOpportunity,
			Icon:        "wallet",
			Title:       "Idle cash",
			Description: fmt.Sprintf("%.1f%% of your portfolio sits in cash (your threshold is %.0f%%). Consider putting it to work.", analysis.CashRatio, threshold),
			Action:      "invest",
			Priority:    3,
		})
	}

	// Sector-wide dip (buying opportunity)
	for _, sector := range sortedSectorNames(analysis.SectorDailyChange) {
		if sector == analytics.SectorOther {
			continue
		}
		if change := analysis.SectorDailyChange[sector]; change < -3 {
			recs = append(recs, Recommendation{
				ID:          "sector-dip-" + sector,
				Type:        TypeOpportunity,
				Icon:        "shopping-cart",
				Title:       fmt.Sprintf("%s is down today", sector),
				Description: fmt.Sprintf("%s holdings fell %.1f%% on average today. A chance to average down.", sector, -change),
				Priority:    3,
			})
		}
	}

	// Single-asset movers: report the worst dip and the best rally.
	if symbol, change, ok := worstMover(dailyChanges); ok && change < -5 {
		recs = append(recs, Recommendation{
			ID:          "asset-dip",
			Type:        TypeOpportunity,
			Icon:        "arrow-down",
			Title:       fmt.Sprintf("%s fell sharply", symbol),
			Description: fmt.Sprintf("%s is down %.1f%% today. Review whether this is a buying opportunity.", symbol, -change),
			Priority:    4,
		})
	}
	if symbol, change, ok := bestMover(dailyChanges); ok && change > 5 {
		recs = append(recs, Recommendation{
			ID:          "asset-rally",
			Type:        TypeSuccess,
			Icon:        "arrow-up",
			Title:       fmt.Sprintf("%s is rallying", symbol),
			Description: fmt.Sprintf("%s is up %.1f%% today.", symbol, change),
			Priority:    5,
		})
	}

	// Diversification nudge
	if analysis.CryptoCount == 0 && analysis.HoldingCount >= 5 {
		recs = append(recs, Recommendation{
			ID:          "no-crypto",
			Type:        TypeInfo,
			Icon:        "bitcoin",
			Title:       "No crypto exposure",
			Description: "Your portfolio has no crypto holdings. A small allocation can add diversification.",
			Priority:    6,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority < recs[j].Priority
	})

	return recs
}

func sortedSectorNames(changes map[string]float64) []string {
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func worstMover(changes map[string]float64) (string, float64, bool) {
	symbol, best, found := "", 0.0, false
	for _, s := range sortedSymbols(changes) {
		if c := changes[s]; !found || c < best {
			symbol, best, found = s, c, true
		}
	}
	return symbol, best, found
}

func bestMover(changes map[string]float64) (string, float64, bool) {
	symbol, best, found := "", 0.0, false
	for _, s := range sortedSymbols(changes) {
		if c := changes[s]; !found || c > best {
			symbol, best, found = s, c, true
		}
	}
	return symbol, best, found
}

func sortedSymbols(changes map[string]float64) []string {
	symbols := make([]string, 0, len(changes))
	for s := range changes {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
