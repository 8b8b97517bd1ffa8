// Package ledger owns the list of open holdings and the realized-trade
// history, and applies buy/sell/edit mutations with weighted-average-cost
// arithmetic.
package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/domain"
)

// holdingsColumns is the column list for the holdings table.
// Order must match scanHolding.
const holdingsColumns = `id, portfolio_id, symbol, name, asset_type, amount, avg_cost, currency,
	original_cost_try, original_cost_usd, bes_principal, bes_yield, custom_price,
	date_added, last_updated`

// tradesColumns is the column list for the realized_trades table.
// Order must match scanTrade.
const tradesColumns = `id, portfolio_id, symbol, asset_type, currency, amount, buy_price,
	sell_price, profit_try, sold_at`

// Repository handles holding and realized-trade database operations.
type Repository struct {
	db  *sql.DB // portfolio.db
	log zerolog.Logger
}

// NewRepository creates a new ledger repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// GetHoldings returns all open holdings of a portfolio.
func (r *Repository) GetHoldings(portfolioID string) ([]domain.Holding, error) {
	query := `SELECT ` + holdingsColumns + ` FROM holdings WHERE portfolio_id = ? ORDER BY date_added`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// GetHolding returns one holding by id, or nil when not found.
func (r *Repository) GetHolding(id string) (*domain.Holding, error) {
	query := `SELECT ` + holdingsColumns + ` FROM holdings WHERE id = ?`

	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	h, err := scanHolding(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan holding: %w", err)
	}

	return &h, nil
}

// GetHoldingBySymbol returns the holding of a portfolio with the given symbol,
// or nil when the portfolio has no open position in it.
func (r *Repository) GetHoldingBySymbol(portfolioID, symbol string) (*domain.Holding, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	query := `SELECT ` + holdingsColumns + ` FROM holdings WHERE portfolio_id = ? AND symbol = ?`

	rows, err := r.db.Query(query, portfolioID, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding by symbol: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	h, err := scanHolding(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan holding: %w", err)
	}

	return &h, nil
}

// upsertHoldingTx inserts or updates a holding within a transaction.
func upsertHoldingTx(tx *sql.Tx, h domain.Holding) error {
	query := `
		INSERT OR REPLACE INTO holdings
		(id, portfolio_id, symbol, name, asset_type, amount, avg_cost, currency,
		 original_cost_try, original_cost_usd, bes_principal, bes_yield, custom_price,
		 date_added, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		h.ID,
		h.PortfolioID,
		h.Symbol,
		nullString(h.Name),
		string(h.Type),
		h.Amount,
		h.AvgCost,
		string(h.Currency),
		nullFloat64Ptr(h.OriginalCostTry),
		nullFloat64Ptr(h.OriginalCostUsd),
		h.BesPrincipal,
		h.BesYield,
		nullFloat64Ptr(h.CustomPrice),
		h.DateAdded,
		h.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}

	return nil
}

// deleteHoldingTx removes a holding within a transaction.
func deleteHoldingTx(tx *sql.Tx, id string) error {
	if _, err := tx.Exec("DELETE FROM holdings WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

// insertTradeTx appends a realized trade within a transaction.
func insertTradeTx(tx *sql.Tx, t domain.RealizedTrade) error {
	query := `
		INSERT INTO realized_trades
		(id, portfolio_id, symbol, asset_type, currency, amount, buy_price,
		 sell_price, profit_try, sold_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		t.ID,
		t.PortfolioID,
		t.Symbol,
		string(t.Type),
		string(t.Currency),
		t.Amount,
		t.BuyPrice,
		t.SellPrice,
		t.ProfitTry,
		t.SoldAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert realized trade: %w", err)
	}

	return nil
}

// GetRealizedTrades returns the realized-trade history of a portfolio,
// most recent first.
func (r *Repository) GetRealizedTrades(portfolioID string) ([]domain.RealizedTrade, error) {
	query := `SELECT ` + tradesColumns + ` FROM realized_trades WHERE portfolio_id = ? ORDER BY sold_at DESC`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query realized trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.RealizedTrade
	for rows.Next() {
		var t domain.RealizedTrade
		var assetType, currency string
		if err := rows.Scan(
			&t.ID,
			&t.PortfolioID,
			&t.Symbol,
			&assetType,
			&currency,
			&t.Amount,
			&t.BuyPrice,
			&t.SellPrice,
			&t.ProfitTry,
			&t.SoldAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan realized trade: %w", err)
		}
		t.Type = domain.AssetType(assetType)
		t.Currency = domain.Currency(currency)
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating realized trades: %w", err)
	}

	return trades, nil
}

// ClearTrades deletes the realized-trade history of a portfolio.
func clearTradesTx(tx *sql.Tx, portfolioID string) error {
	if _, err := tx.Exec("DELETE FROM realized_trades WHERE portfolio_id = ?", portfolioID); err != nil {
		return fmt.Errorf("failed to clear realized trades: %w", err)
	}
	return nil
}

// clearHoldingsTx deletes all holdings of a portfolio.
func clearHoldingsTx(tx *sql.Tx, portfolioID string) error {
	if _, err := tx.Exec("DELETE FROM holdings WHERE portfolio_id = ?", portfolioID); err != nil {
		return fmt.Errorf("failed to clear holdings: %w", err)
	}
	return nil
}

// scanHolding scans a database row into a Holding.
func scanHolding(rows *sql.Rows) (domain.Holding, error) {
	var h domain.Holding
	var name sql.NullString
	var assetType, currency string
	var originalCostTry, originalCostUsd, customPrice sql.NullFloat64

	err := rows.Scan(
		&h.ID,
		&h.PortfolioID,
		&h.Symbol,
		&name,
		&assetType,
		&h.Amount,
		&h.AvgCost,
		&currency,
		&originalCostTry,
		&originalCostUsd,
		&h.BesPrincipal,
		&h.BesYield,
		&customPrice,
		&h.DateAdded,
		&h.LastUpdated,
	)
	if err != nil {
		return h, err
	}

	if name.Valid {
		h.Name = name.String
	}
	if originalCostTry.Valid {
		v := originalCostTry.Float64
		h.OriginalCostTry = &v
	}
	if originalCostUsd.Valid {
		v := originalCostUsd.Float64
		h.OriginalCostUsd = &v
	}
	if customPrice.Valid {
		v := customPrice.Float64
		h.CustomPrice = &v
	}

	h.Type = domain.AssetType(assetType)
	h.Currency = domain.Currency(currency)
	h.Symbol = strings.ToUpper(strings.TrimSpace(h.Symbol))

	return h, nil
}

func nullFloat64Ptr(val *float64) sql.NullFloat64 {
	if val == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *val, Valid: true}
}

func nullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}

func nowUnix() int64 {
	return time.Now().Unix()
}
