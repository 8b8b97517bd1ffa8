package ledger

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/database"
	"github.com/ozgurkara/portfoy/internal/domain"
)

// quantityEpsilon treats residual amounts below this threshold as a full
// liquidation, so float drift never leaves a ghost position behind.
const quantityEpsilon = 1e-9

// SeriesPurger removes the derived historical value series of a portfolio.
// Implemented by the history module; optional (nil disables the purge).
type SeriesPurger interface {
	ClearSeries(portfolioID string) error
}

// Service applies ledger mutations. Every operation is all-or-nothing: it
// either commits completely or leaves the ledger untouched.
type Service struct {
	repo   *Repository
	db     *sql.DB
	series SeriesPurger
	log    zerolog.Logger
}

// NewService creates a new ledger service.
func NewService(repo *Repository, db *sql.DB, series SeriesPurger, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		db:     db,
		series: series,
		log:    log.With().Str("service", "ledger").Logger(),
	}
}

// AddParams describes a buy (or the creation of a new holding).
type AddParams struct {
	PortfolioID string
	Symbol      string
	Name        string
	Type        domain.AssetType
	Amount      float64
	UnitCost    float64
	Currency    domain.Currency
	DateAdded   time.Time

	// Optional cross-currency cost snapshot taken at acquisition time.
	OriginalCostTry *float64
	OriginalCostUsd *float64

	// BES-specific fields.
	BesPrincipal float64
	BesYield     float64

	// Manual price override for custom assets.
	CustomPrice *float64
}

// AddOrMerge records a buy. When the portfolio already holds the symbol the
// position is merged and the average cost becomes the quantity-weighted
// average across all buys to date. A holding of the same symbol with a
// different currency or asset type is rejected with ErrCurrencyMismatch.
func (s *Service) AddOrMerge(p AddParams) (*domain.Holding, error) {
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if !p.Type.Valid() {
		return nil, fmt.Errorf("unknown asset type %q", p.Type)
	}
	if !p.Currency.Valid() {
		return nil, fmt.Errorf("unknown currency %q", p.Currency)
	}
	if p.Amount < 0 || p.UnitCost < 0 {
		return nil, domain.ErrInvalidAmount
	}
	if p.DateAdded.IsZero() {
		p.DateAdded = time.Now()
	}

	existing, err := s.repo.GetHoldingBySymbol(p.PortfolioID, p.Symbol)
	if err != nil {
		return nil, err
	}

	now := nowUnix()

	if existing == nil {
		holding := domain.Holding{
			ID:              uuid.NewString(),
			PortfolioID:     p.PortfolioID,
			Symbol:          p.Symbol,
			Name:            p.Name,
			Type:            p.Type,
			Amount:          p.Amount,
			AvgCost:         p.UnitCost,
			Currency:        p.Currency,
			OriginalCostTry: p.OriginalCostTry,
			OriginalCostUsd: p.OriginalCostUsd,
			BesPrincipal:    p.BesPrincipal,
			BesYield:        p.BesYield,
			CustomPrice:     p.CustomPrice,
			DateAdded:       p.DateAdded.Unix(),
			LastUpdated:     now,
		}

		err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
			return upsertHoldingTx(tx, holding)
		})
		if err != nil {
			return nil, err
		}

		s.log.Info().Str("symbol", holding.Symbol).Float64("amount", holding.Amount).Msg("Holding created")
		return &holding, nil
	}

	if existing.Currency != p.Currency || existing.Type != p.Type {
		return nil, domain.ErrCurrencyMismatch
	}

	merged := *existing
	newAmount := existing.Amount + p.Amount
	if newAmount > 0 {
		merged.AvgCost = (existing.Amount*existing.AvgCost + p.Amount*p.UnitCost) / newAmount
	}
	merged.Amount = newAmount
	merged.BesPrincipal += p.BesPrincipal
	merged.BesYield += p.BesYield
	merged.LastUpdated = now

	// Accumulate cross-currency snapshots so the total keeps reflecting the
	// FX rates that were current at each acquisition.
	merged.OriginalCostTry = sumOptional(existing.OriginalCostTry, p.OriginalCostTry)
	merged.OriginalCostUsd = sumOptional(existing.OriginalCostUsd, p.OriginalCostUsd)

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		return upsertHoldingTx(tx, merged)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("symbol", merged.Symbol).
		Float64("amount", merged.Amount).
		Float64("avg_cost", merged.AvgCost).
		Msg("Holding merged")

	return &merged, nil
}

// SellParams describes a sale of part or all of a holding.
type SellParams struct {
	Amount    float64
	SellPrice float64
	SoldAt    time.Time

	// HistoricalFxRate, when set, converts a USD-denominated profit to TRY at
	// the rate of the sale date instead of the live rate.
	HistoricalFxRate *float64
}

// Sell decrements a holding and appends a frozen RealizedTrade. The average
// cost is unchanged by a sell; only the amount shrinks. When the remaining
// amount reaches zero (within epsilon) the holding is removed entirely.
// This is the only place realized profit is computed.
func (s *Service) Sell(holdingID string, p SellParams, liveUsdTryRate float64) (*domain.RealizedTrade, error) {
	holding, err := s.repo.GetHolding(holdingID)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, domain.ErrHoldingNotFound
	}

	if p.Amount <= 0 || p.SellPrice < 0 {
		return nil, domain.ErrInvalidAmount
	}
	if p.Amount > holding.Amount+quantityEpsilon {
		return nil, domain.ErrInsufficientQuantity
	}
	if p.SoldAt.IsZero() {
		p.SoldAt = time.Now()
	}

	profit := (p.SellPrice - holding.AvgCost) * p.Amount

	profitTry := profit
	if holding.Currency == domain.USD {
		rate := liveUsdTryRate
		if p.HistoricalFxRate != nil && *p.HistoricalFxRate > 0 {
			rate = *p.HistoricalFxRate
		}
		if rate <= 0 {
			return nil, domain.ErrRateUnavailable
		}
		profitTry = profit * rate
	}

	trade := domain.RealizedTrade{
		ID:          uuid.NewString(),
		PortfolioID: holding.PortfolioID,
		Symbol:      holding.Symbol,
		Type:        holding.Type,
		Currency:    holding.Currency,
		Amount:      p.Amount,
		BuyPrice:    holding.AvgCost,
		SellPrice:   p.SellPrice,
		ProfitTry:   profitTry,
		SoldAt:      p.SoldAt.Unix(),
	}

	remaining := holding.Amount - p.Amount

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		if err := insertTradeTx(tx, trade); err != nil {
			return err
		}

		if remaining <= quantityEpsilon {
			return deleteHoldingTx(tx, holding.ID)
		}

		updated := *holding
		updated.Amount = remaining
		updated.LastUpdated = nowUnix()
		return upsertHoldingTx(tx, updated)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("symbol", holding.Symbol).
		Float64("sold", p.Amount).
		Float64("remaining", math.Max(remaining, 0)).
		Float64("profit_try", profitTry).
		Msg("Holding sold")

	return &trade, nil
}

// EditParams is a direct overwrite of a holding's amount and average cost.
type EditParams struct {
	Amount  float64
	AvgCost float64

	// NewDate, when set, replaces the acquisition date.
	NewDate *time.Time

	// NewFxRate, when set, re-derives the cross-currency cost snapshot at the
	// supplied rate.
	NewFxRate *float64
}

// Edit overwrites a holding's amount and average cost. It bypasses the merge
// math entirely; this is the escape hatch for manual corrections, so the only
// validation is non-negativity.
func (s *Service) Edit(holdingID string, p EditParams) (*domain.Holding, error) {
	holding, err := s.repo.GetHolding(holdingID)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, domain.ErrHoldingNotFound
	}

	if p.Amount < 0 || p.AvgCost < 0 {
		return nil, domain.ErrInvalidAmount
	}

	updated := *holding
	updated.Amount = p.Amount
	updated.AvgCost = p.AvgCost
	updated.LastUpdated = nowUnix()

	if p.NewDate != nil {
		updated.DateAdded = p.NewDate.Unix()
	}

	if p.NewFxRate != nil && *p.NewFxRate > 0 {
		total := p.Amount * p.AvgCost
		switch holding.Currency {
		case domain.USD:
			snapshot := total * *p.NewFxRate
			updated.OriginalCostTry = &snapshot
		case domain.TRY:
			snapshot := total / *p.NewFxRate
			updated.OriginalCostUsd = &snapshot
		}
	}

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		return upsertHoldingTx(tx, updated)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("symbol", updated.Symbol).Msg("Holding edited")
	return &updated, nil
}

// Delete removes a holding unconditionally. No realized trade is recorded;
// this is a correction, not a sale.
func (s *Service) Delete(holdingID string) error {
	holding, err := s.repo.GetHolding(holdingID)
	if err != nil {
		return err
	}
	if holding == nil {
		return domain.ErrHoldingNotFound
	}

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		return deleteHoldingTx(tx, holdingID)
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("symbol", holding.Symbol).Msg("Holding deleted")
	return nil
}

// ResetAll clears all holdings and realized trades of a portfolio.
// Irreversible.
func (s *Service) ResetAll(portfolioID string) error {
	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		if err := clearHoldingsTx(tx, portfolioID); err != nil {
			return err
		}
		return clearTradesTx(tx, portfolioID)
	})
	if err != nil {
		return err
	}

	if s.series != nil {
		if err := s.series.ClearSeries(portfolioID); err != nil {
			s.log.Warn().Err(err).Msg("Failed to clear value series after reset")
		}
	}

	s.log.Warn().Str("portfolio_id", portfolioID).Msg("Ledger reset")
	return nil
}

// ClearHistory clears realized trades and the derived value series.
// Open holdings are untouched.
func (s *Service) ClearHistory(portfolioID string) error {
	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		return clearTradesTx(tx, portfolioID)
	})
	if err != nil {
		return err
	}

	if s.series != nil {
		if err := s.series.ClearSeries(portfolioID); err != nil {
			s.log.Warn().Err(err).Msg("Failed to clear value series")
		}
	}

	s.log.Info().Str("portfolio_id", portfolioID).Msg("Realized-trade history cleared")
	return nil
}

// sumOptional adds two optional totals; nil when both are nil.
func sumOptional(a, b *float64) *float64 {
	if a == nil && b == nil {
		return nil
	}
	total := 0.0
	if a != nil {
		total += *a
	}
	if b != nil {
		total += *b
	}
	return &total
}
