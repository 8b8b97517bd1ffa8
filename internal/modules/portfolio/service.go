package portfolio

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/domain"
	"github.com/ozgurkara/portfoy/internal/modules/ledger"
	"github.com/ozgurkara/portfoy/internal/modules/settings"
)

// Service manages portfolio containers and the active-portfolio selection.
type Service struct {
	repo     *Repository
	ledger   *ledger.Repository
	settings *settings.Repository
	db       *sql.DB
	log      zerolog.Logger
}

// NewService creates a new portfolio service.
func NewService(repo *Repository, ledgerRepo *ledger.Repository, settingsRepo *settings.Repository, db *sql.DB, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledgerRepo,
		settings: settingsRepo,
		db:       db,
		log:      log.With().Str("service", "portfolio").Logger(),
	}
}

// Create adds a new portfolio. The first portfolio automatically becomes the
// active one.
func (s *Service) Create(name string) (*domain.Portfolio, error) {
	p := domain.Portfolio{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().Unix(),
	}

	if err := s.repo.Upsert(p); err != nil {
		return nil, err
	}

	active, err := s.settings.Get(settings.KeyActivePortfolio)
	if err != nil {
		return nil, err
	}
	if active == nil {
		if err := s.settings.Set(settings.KeyActivePortfolio, p.ID); err != nil {
			return nil, err
		}
	}

	return &p, nil
}

// List returns all portfolios.
func (s *Service) List() ([]domain.Portfolio, error) {
	return s.repo.GetAll()
}

// Get returns one portfolio.
func (s *Service) Get(id string) (*domain.Portfolio, error) {
	p, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrPortfolioNotFound
	}
	return p, nil
}

// Delete removes a portfolio and everything in it. When the active portfolio
// is deleted, the selection falls back to the oldest remaining one.
func (s *Service) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}

	active, err := s.settings.Get(settings.KeyActivePortfolio)
	if err != nil {
		return err
	}
	if active != nil && *active == id {
		remaining, err := s.repo.GetAll()
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			return s.settings.Set(settings.KeyActivePortfolio, remaining[0].ID)
		}
		return s.settings.Delete(settings.KeyActivePortfolio)
	}

	return nil
}

// SetActive switches the active portfolio.
func (s *Service) SetActive(id string) error {
	p, err := s.repo.Get(id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrPortfolioNotFound
	}
	return s.settings.Set(settings.KeyActivePortfolio, id)
}

// GetActive returns the active portfolio. ErrPortfolioNotFound when no
// portfolio has been created yet.
func (s *Service) GetActive() (*domain.Portfolio, error) {
	active, err := s.settings.Get(settings.KeyActivePortfolio)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, domain.ErrPortfolioNotFound
	}
	p, err := s.repo.Get(*active)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrPortfolioNotFound
	}
	return p, nil
}

// SetCashBalance overwrites the uninvested cash of a portfolio.
func (s *Service) SetCashBalance(id string, balance float64) error {
	if balance < 0 {
		return domain.ErrInvalidAmount
	}
	return s.repo.SetCashBalance(id, balance)
}
