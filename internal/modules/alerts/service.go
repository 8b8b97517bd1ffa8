package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/domain"
)

// Service owns alert lifecycle and evaluation.
type Service struct {
	repo     *Repository
	notifier domain.Notifier
	log      zerolog.Logger
}

// NewService creates an alerts service.
func NewService(repo *Repository, notifier domain.Notifier, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log.With().Str("service", "alerts").Logger(),
	}
}

// CreateParams describes a new alert.
type CreateParams struct {
	Symbol    string    `json:"symbol"`
	AssetType string    `json:"assetType"`
	Direction Direction `json:"direction"`
	Threshold float64   `json:"threshold"`
}

// Create validates and stores a new alert.
func (s *Service) Create(portfolioID string, p CreateParams) (*Alert, error) {
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("alert symbol is required")
	}
	if !p.Direction.Valid() {
		return nil, fmt.Errorf("invalid alert direction: %s", p.Direction)
	}
	if p.Threshold <= 0 {
		return nil, fmt.Errorf("alert threshold must be positive")
	}

	alert := Alert{
		ID:          uuid.New().String(),
		PortfolioID: portfolioID,
		Symbol:      symbol,
		AssetType:   p.AssetType,
		Direction:   p.Direction,
		Threshold:   p.Threshold,
		CreatedAt:   time.Now().Unix(),
	}

	if err := s.repo.Insert(alert); err != nil {
		return nil, err
	}

	s.log.Info().Str("symbol", symbol).Str("direction", string(p.Direction)).
		Float64("threshold", p.Threshold).Msg("Alert created")

	return &alert, nil
}

// List returns all alerts of a portfolio.
func (s *Service) List(portfolioID string) ([]Alert, error) {
	return s.repo.GetAll(portfolioID)
}

// Delete removes an alert.
func (s *Service) Delete(id string) (bool, error) {
	return s.repo.Delete(id)
}

// ActiveInstruments returns the symbol/type pairs a quote refresh needs to
// evaluate this portfolio's pending alerts.
func (s *Service) ActiveInstruments(portfolioID string) ([]domain.InstrumentRef, error) {
	active, err := s.repo.GetActive(portfolioID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(active))
	refs := make([]domain.InstrumentRef, 0, len(active))
	for _, a := range active {
		key := a.Symbol + "|" + a.AssetType
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		refs = append(refs, domain.InstrumentRef{Symbol: a.Symbol, Type: domain.AssetType(a.AssetType)})
	}
	return refs, nil
}

// Evaluate checks active alerts against the given quotes and fires the ones
// whose threshold was crossed. Symbols without a quote are skipped; they will
// be evaluated again on the next cycle.
func (s *Service) Evaluate(ctx context.Context, portfolioID string, quotes map[string]domain.Quote) (int, error) {
	active, err := s.repo.GetActive(portfolioID)
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, alert := range active {
		quote, ok := quotes[alert.Symbol]
		if !ok || quote.Price <= 0 {
			continue
		}

		if !crossed(alert, quote.Price) {
			continue
		}

		if err := s.repo.MarkTriggered(alert.ID, time.Now()); err != nil {
			s.log.Error().Err(err).Str("alert_id", alert.ID).Msg("Failed to mark alert triggered")
			continue
		}
		fired++

		title := fmt.Sprintf("%s alert", alert.Symbol)
		body := fmt.Sprintf("%s is %.4f, crossed %s threshold %.4f",
			alert.Symbol, quote.Price, alert.Direction, alert.Threshold)
		if err := s.notifier.Notify(ctx, title, body); err != nil {
			s.log.Warn().Err(err).Str("alert_id", alert.ID).Msg("Alert notification failed")
		}
	}

	return fired, nil
}

func crossed(a Alert, price float64) bool {
	switch a.Direction {
	case DirectionAbove:
		return price >= a.Threshold
	case DirectionBelow:
		return price <= a.Threshold
	}
	return false
}
