// Package overview assembles the live portfolio view: fresh quotes, position
// valuations, aggregate analysis and recommendations in one pass, so every
// number on screen comes from the same refresh cycle.
package overview

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/domain"
	"github.com/ozgurkara/portfoy/internal/modules/analytics"
	"github.com/ozgurkara/portfoy/internal/modules/insights"
	"github.com/ozgurkara/portfoy/internal/modules/ledger"
	"github.com/ozgurkara/portfoy/internal/modules/portfolio"
	"github.com/ozgurkara/portfoy/internal/modules/settings"
	"github.com/ozgurkara/portfoy/internal/modules/valuation"
	"github.com/ozgurkara/portfoy/internal/services/marketdata"
)

// View is the full portfolio picture returned to the UI.
type View struct {
	Portfolio       domain.Portfolio           `json:"portfolio"`
	Positions       []domain.PositionValuation `json:"positions"`
	Analysis        analytics.Analysis         `json:"analysis"`
	Recommendations []insights.Recommendation  `json:"recommendations"`
	UsdTryRate      float64                    `json:"usdTryRate"`
	RefreshSeq      uint64                     `json:"refreshSeq"`
}

// Service builds portfolio views.
type Service struct {
	portfolios *portfolio.Service
	holdings   *ledger.Repository
	market     *marketdata.Service
	engine     *valuation.Engine
	analyzer   *analytics.Analyzer
	series     domain.SeriesStore
	settings   *settings.Repository
	log        zerolog.Logger
}

// NewService creates an overview service.
func NewService(portfolios *portfolio.Service, holdings *ledger.Repository, market *marketdata.Service, engine *valuation.Engine, analyzer *analytics.Analyzer, series domain.SeriesStore, settingsRepo *settings.Repository, log zerolog.Logger) *Service {
	return &Service{
		portfolios: portfolios,
		holdings:   holdings,
		market:     market,
		engine:     engine,
		analyzer:   analyzer,
		series:     series,
		settings:   settingsRepo,
		log:        log.With().Str("service", "overview").Logger(),
	}
}

// Build refreshes quotes and assembles the view for one portfolio. A refresh
// superseded by a newer one falls back to the latest completed snapshot.
func (s *Service) Build(ctx context.Context, portfolioID string) (*View, error) {
	p, err := s.portfolios.Get(portfolioID)
	if err != nil {
		return nil, err
	}

	holdings, err := s.holdings.GetHoldings(p.ID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.market.Refresh(ctx, instrumentRefs(holdings))
	if errors.Is(err, marketdata.ErrSuperseded) {
		snapshot = s.market.Latest()
	} else if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, domain.ErrPriceUnavailable
	}

	positions := s.engine.ValuateAll(holdings, snapshot.Quotes, snapshot.UsdTryRate)

	seriesPoints, err := s.series.ReadSeries(p.ID)
	if err != nil {
		return nil, err
	}

	analysis := s.analyzer.Analyze(positions, p.CashBalance, seriesPoints)

	risk := insights.RiskMedium
	if v, err := s.settings.GetString(settings.KeyRiskAppetite, string(insights.RiskMedium)); err == nil && v != "" {
		risk = insights.RiskAppetite(v)
	}

	recommendations := insights.Generate(analysis, dailyChanges(positions), risk)

	return &View{
		Portfolio:       *p,
		Positions:       positions,
		Analysis:        analysis,
		Recommendations: recommendations,
		UsdTryRate:      snapshot.UsdTryRate,
		RefreshSeq:      snapshot.Seq,
	}, nil
}

// BuildActive assembles the view for the active portfolio.
func (s *Service) BuildActive(ctx context.Context) (*View, error) {
	p, err := s.portfolios.GetActive()
	if err != nil {
		return nil, err
	}
	return s.Build(ctx, p.ID)
}

// AssetInsight returns the per-position narrative for one holding.
func (s *Service) AssetInsight(ctx context.Context, holdingID string) (*insights.AssetInsight, error) {
	h, err := s.holdings.GetHolding(holdingID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, domain.ErrHoldingNotFound
	}

	snapshot, err := s.market.Refresh(ctx, []domain.InstrumentRef{{Symbol: h.Symbol, Type: h.Type}})
	if errors.Is(err, marketdata.ErrSuperseded) {
		snapshot = s.market.Latest()
	} else if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, domain.ErrPriceUnavailable
	}

	v := s.engine.Valuate(*h, snapshot.Quotes, snapshot.UsdTryRate)
	if !v.PriceKnown {
		return nil, domain.ErrPriceUnavailable
	}

	// Compare against the average cost in the currency the position is kept
	// in. A crypto position recorded in TRY is judged on its TRY price even
	// though the venue quotes USD.
	price := v.PriceTry
	if h.Currency == domain.USD {
		price = v.PriceUsd
	}

	insight := insights.GenerateAssetInsight(price, h.AvgCost, v.Change24h, h.Amount)
	return &insight, nil
}

// dailyChanges maps each priced symbol to its 24h percent change.
func dailyChanges(positions []domain.PositionValuation) map[string]float64 {
	changes := make(map[string]float64, len(positions))
	for _, p := range positions {
		if p.PriceKnown {
			changes[p.Symbol] = p.Change24h
		}
	}
	return changes
}

func instrumentRefs(holdings []domain.Holding) []domain.InstrumentRef {
	seen := make(map[string]struct{}, len(holdings))
	refs := make([]domain.InstrumentRef, 0, len(holdings))
	for _, h := range holdings {
		key := h.Symbol + "|" + string(h.Type)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		refs = append(refs, domain.InstrumentRef{Symbol: h.Symbol, Type: h.Type})
	}
	return refs
}
