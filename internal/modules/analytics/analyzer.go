package analytics

import (
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/ozgurkara/portfoy/internal/domain"
)

// TopHolding is the single largest position by TRY value.
type TopHolding struct {
	Symbol     string  `json:"symbol"`
	ValueTry   float64 `json:"valueTry"`
	Percentage float64 `json:"percentage"`
}

// SectorWeight is the share of total value attributed to one sector.
type SectorWeight struct {
	Sector     string  `json:"sector"`
	ValueTry   float64 `json:"valueTry"`
	Percentage float64 `json:"percentage"`
}

// Analysis is the portfolio-level aggregate of one valuation snapshot.
type Analysis struct {
	TotalValueTry float64 `json:"totalValueTry"`
	CashBalance   float64 `json:"cashBalance"`
	CashRatio     float64 `json:"cashRatio"` // percent of total value held as cash
	HoldingCount  int     `json:"holdingCount"`
	CryptoCount   int     `json:"cryptoCount"`
	PendingCount  int     `json:"pendingCount"` // holdings without a usable quote

	TopHolding *TopHolding    `json:"topHolding,omitempty"`
	Sectors    []SectorWeight `json:"sectors"`

	// SectorDailyChange is the unweighted mean 24h change of each sector's
	// members, in percent.
	SectorDailyChange map[string]float64 `json:"sectorDailyChange"`

	// DailyPnlTry approximates today's aggregate profit/loss in TRY from the
	// per-position 24h changes.
	DailyPnlTry float64 `json:"dailyPnlTry"`

	// WeeklyChangePct is the change against the value seven daily snapshots
	// ago; 0 when the series is shorter than seven points.
	WeeklyChangePct float64 `json:"weeklyChangePct"`
}

// Analyzer aggregates valuations. Pure: missing data degrades to zero values
// and empty aggregates instead of errors.
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a portfolio analyzer.
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("service", "analytics").Logger()}
}

// Analyze computes portfolio-level statistics from per-position valuations,
// the cash balance (TRY) and the historical daily value series.
func (a *Analyzer) Analyze(valuations []domain.PositionValuation, cashBalance float64, history []domain.SnapshotPoint) Analysis {
	analysis := Analysis{
		CashBalance:       cashBalance,
		HoldingCount:      len(valuations),
		Sectors:           []SectorWeight{},
		SectorDailyChange: map[string]float64{},
	}

	total := cashBalance
	sectorValues := make(map[string]float64)
	sectorChanges := make(map[string][]float64)

	var top *TopHolding
	for _, v := range valuations {
		if v.Type == domain.AssetCrypto {
			analysis.CryptoCount++
		}
		if !v.PriceKnown {
			analysis.PendingCount++
			continue
		}

		total += v.ValueTry
		analysis.DailyPnlTry += v.ValueTry * v.Change24h / 100

		sector := SectorOf(v.Symbol, v.Type)
		sectorValues[sector] += v.ValueTry
		sectorChanges[sector] = append(sectorChanges[sector], v.Change24h)

		if top == nil || v.ValueTry > top.ValueTry {
			top = &TopHolding{Symbol: v.Symbol, ValueTry: v.ValueTry}
		}
	}

	analysis.TotalValueTry = total

	if total > 0 {
		analysis.CashRatio = cashBalance / total * 100
		if top != nil {
			top.Percentage = top.ValueTry / total * 100
		}
	}
	analysis.TopHolding = top

	for sector, value := range sectorValues {
		weight := SectorWeight{Sector: sector, ValueTry: value}
		if total > 0 {
			weight.Percentage = value / total * 100
		}
		analysis.Sectors = append(analysis.Sectors, weight)
	}
	sort.Slice(analysis.Sectors, func(i, j int) bool {
		return analysis.Sectors[i].Percentage > analysis.Sectors[j].Percentage
	})

	for sector, changes := range sectorChanges {
		analysis.SectorDailyChange[sector] = stat.Mean(changes, nil)
	}

	analysis.WeeklyChangePct = weeklyChange(total, history)

	return analysis
}

// weeklyChange compares the current total against the value seven daily
// points ago. The series is external state, appended once per day.
func weeklyChange(currentTotal float64, history []domain.SnapshotPoint) float64 {
	if len(history) < 7 {
		return 0
	}
	reference := history[len(history)-7].ValueTry
	if reference <= 0 {
		return 0
	}
	return (currentTotal - reference) / reference * 100
}
