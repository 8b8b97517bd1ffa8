package portfolio

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ozgurkara/portfoy/internal/database"
	"github.com/ozgurkara/portfoy/internal/domain"
	"github.com/ozgurkara/portfoy/internal/modules/settings"
)

// exportVersion identifies the envelope shape.
const exportVersion = "2"

// ExportEnvelope is the JSON shape produced by export and consumed by import.
type ExportEnvelope struct {
	Version           string            `json:"version"`
	ExportDate        string            `json:"exportDate"`
	Portfolios        []PortfolioExport `json:"portfolios"`
	ActivePortfolioID string            `json:"activePortfolioId,omitempty"`
}

// PortfolioExport is one portfolio with its full ledger.
type PortfolioExport struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	CashBalance float64                `json:"cashBalance"`
	CreatedAt   int64                  `json:"createdAt"`
	Items       []domain.Holding       `json:"items"`
	Trades      []domain.RealizedTrade `json:"trades"`
}

// Export serializes every portfolio, its holdings and realized trades into
// one envelope.
func (s *Service) Export() (*ExportEnvelope, error) {
	portfolios, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	envelope := &ExportEnvelope{
		Version:    exportVersion,
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		Portfolios: []PortfolioExport{},
	}

	active, err := s.settings.Get(settings.KeyActivePortfolio)
	if err != nil {
		return nil, err
	}
	if active != nil {
		envelope.ActivePortfolioID = *active
	}

	for _, p := range portfolios {
		holdings, err := s.ledger.GetHoldings(p.ID)
		if err != nil {
			return nil, err
		}
		trades, err := s.ledger.GetRealizedTrades(p.ID)
		if err != nil {
			return nil, err
		}

		if holdings == nil {
			holdings = []domain.Holding{}
		}
		if trades == nil {
			trades = []domain.RealizedTrade{}
		}

		envelope.Portfolios = append(envelope.Portfolios, PortfolioExport{
			ID:          p.ID,
			Name:        p.Name,
			CashBalance: p.CashBalance,
			CreatedAt:   p.CreatedAt,
			Items:       holdings,
			Trades:      trades,
		})
	}

	return envelope, nil
}

// ParseEnvelope decodes and structurally validates an import payload.
// Any shape violation rejects the payload wholesale.
func ParseEnvelope(data []byte) (*ExportEnvelope, error) {
	// Decode into a raw shape first so a missing items list is
	// distinguishable from an empty one.
	var raw struct {
		Version           string            `json:"version"`
		ExportDate        string            `json:"exportDate"`
		Portfolios        []json.RawMessage `json:"portfolios"`
		ActivePortfolioID string            `json:"activePortfolioId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImportShape, err)
	}

	if raw.Version == "" || raw.ExportDate == "" {
		return nil, fmt.Errorf("%w: missing version or exportDate", domain.ErrInvalidImportShape)
	}
	if raw.Portfolios == nil {
		return nil, fmt.Errorf("%w: portfolios must be a list", domain.ErrInvalidImportShape)
	}

	envelope := &ExportEnvelope{
		Version:           raw.Version,
		ExportDate:        raw.ExportDate,
		ActivePortfolioID: raw.ActivePortfolioID,
		Portfolios:        []PortfolioExport{},
	}

	for i, rawPortfolio := range raw.Portfolios {
		var shape struct {
			ID    string            `json:"id"`
			Name  string            `json:"name"`
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(rawPortfolio, &shape); err != nil {
			return nil, fmt.Errorf("%w: portfolio %d: %v", domain.ErrInvalidImportShape, i, err)
		}
		if shape.ID == "" || shape.Name == "" {
			return nil, fmt.Errorf("%w: portfolio %d missing id or name", domain.ErrInvalidImportShape, i)
		}
		if shape.Items == nil {
			return nil, fmt.Errorf("%w: portfolio %d missing items list", domain.ErrInvalidImportShape, i)
		}

		var p PortfolioExport
		if err := json.Unmarshal(rawPortfolio, &p); err != nil {
			return nil, fmt.Errorf("%w: portfolio %d: %v", domain.ErrInvalidImportShape, i, err)
		}
		envelope.Portfolios = append(envelope.Portfolios, p)
	}

	return envelope, nil
}

// Import replaces the entire portfolio state with the envelope's contents in
// a single transaction. Nothing is applied when any part fails.
func (s *Service) Import(envelope *ExportEnvelope) error {
	if envelope == nil {
		return domain.ErrInvalidImportShape
	}

	existing, err := s.repo.GetAll()
	if err != nil {
		return err
	}

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		for _, p := range existing {
			if _, err := tx.Exec("DELETE FROM portfolios WHERE id = ?", p.ID); err != nil {
				return fmt.Errorf("failed to clear portfolio %s: %w", p.ID, err)
			}
		}

		for _, p := range envelope.Portfolios {
			createdAt := p.CreatedAt
			if createdAt == 0 {
				createdAt = time.Now().Unix()
			}
			if err := upsertTx(tx, domain.Portfolio{
				ID:          p.ID,
				Name:        p.Name,
				CashBalance: p.CashBalance,
				CreatedAt:   createdAt,
			}); err != nil {
				return err
			}

			for _, h := range p.Items {
				h.PortfolioID = p.ID
				if err := s.ledger.UpsertHoldingTx(tx, h); err != nil {
					return err
				}
			}
			for _, t := range p.Trades {
				t.PortfolioID = p.ID
				if err := s.ledger.InsertTradeTx(tx, t); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if envelope.ActivePortfolioID != "" {
		if err := s.settings.Set(settings.KeyActivePortfolio, envelope.ActivePortfolioID); err != nil {
			return err
		}
	} else if len(envelope.Portfolios) > 0 {
		if err := s.settings.Set(settings.KeyActivePortfolio, envelope.Portfolios[0].ID); err != nil {
			return err
		}
	}

	s.log.Info().Int("portfolios", len(envelope.Portfolios)).Msg("Import applied")
	return nil
}
