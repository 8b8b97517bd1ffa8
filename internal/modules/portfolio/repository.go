// Package portfolio manages the top-level portfolio containers: named sets
// of holdings and realized trades with a cash balance, one of which is
// active at a time.
package portfolio

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/domain"
)

// Repository handles portfolio database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// GetAll returns all portfolios ordered by creation time.
func (r *Repository) GetAll() ([]domain.Portfolio, error) {
	rows, err := r.db.Query("SELECT id, name, cash_balance, created_at FROM portfolios ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []domain.Portfolio
	for rows.Next() {
		var p domain.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.CashBalance, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}

// Get returns one portfolio by id, or nil when not found.
func (r *Repository) Get(id string) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := r.db.QueryRow("SELECT id, name, cash_balance, created_at FROM portfolios WHERE id = ?", id).
		Scan(&p.ID, &p.Name, &p.CashBalance, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return &p, nil
}

// Upsert inserts or updates a portfolio.
func (r *Repository) Upsert(p domain.Portfolio) error {
	_, err := r.db.Exec(`
		INSERT INTO portfolios (id, name, cash_balance, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			cash_balance = excluded.cash_balance
	`, p.ID, p.Name, p.CashBalance, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio: %w", err)
	}

	r.log.Info().Str("portfolio_id", p.ID).Str("name", p.Name).Msg("Portfolio upserted")
	return nil
}

// upsertTx is the transactional variant used by import.
func upsertTx(tx *sql.Tx, p domain.Portfolio) error {
	_, err := tx.Exec(`
		INSERT INTO portfolios (id, name, cash_balance, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			cash_balance = excluded.cash_balance
	`, p.ID, p.Name, p.CashBalance, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio: %w", err)
	}
	return nil
}

// Delete removes a portfolio. Holdings, trades and alerts cascade.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM portfolios WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Info().Str("portfolio_id", id).Int64("rows_affected", rowsAffected).Msg("Portfolio deleted")
	return nil
}

// SetCashBalance overwrites the cash balance of a portfolio.
func (r *Repository) SetCashBalance(id string, balance float64) error {
	result, err := r.db.Exec("UPDATE portfolios SET cash_balance = ? WHERE id = ?", balance, id)
	if err != nil {
		return fmt.Errorf("failed to update cash balance: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrPortfolioNotFound
	}
	return nil
}
