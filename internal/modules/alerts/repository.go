// Package alerts stores one-shot price alerts and evaluates them against
// fresh quotes.
package alerts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// alertColumns is the column list for the alerts table.
// Order must match scanAlert.
const alertColumns = `id, portfolio_id, symbol, asset_type, direction, threshold, triggered_at, created_at`

// Repository handles alert database operations.
type Repository struct {
	db  *sql.DB // portfolio.db
	log zerolog.Logger
}

// NewRepository creates a new alerts repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "alerts").Logger(),
	}
}

// GetAll returns all alerts of a portfolio, newest first.
func (r *Repository) GetAll(portfolioID string) ([]Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE portfolio_id = ? ORDER BY created_at DESC`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

// GetActive returns the alerts of a portfolio that have not yet triggered.
func (r *Repository) GetActive(portfolioID string) ([]Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE portfolio_id = ? AND triggered_at IS NULL`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active alerts: %w", err)
	}

	return alerts, nil
}

// Insert persists a new alert.
func (r *Repository) Insert(a Alert) error {
	query := `INSERT INTO alerts (` + alertColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		a.ID, a.PortfolioID, a.Symbol, a.AssetType, string(a.Direction),
		a.Threshold, nullInt64Ptr(a.TriggeredAt), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

// MarkTriggered records the moment an alert fired.
func (r *Repository) MarkTriggered(id string, at time.Time) error {
	result, err := r.db.Exec(`UPDATE alerts SET triggered_at = ? WHERE id = ? AND triggered_at IS NULL`,
		at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark alert triggered: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		r.log.Debug().Str("alert_id", id).Msg("Alert already triggered or missing")
	}

	return nil
}

// Delete removes an alert. It reports whether a row was deleted.
func (r *Repository) Delete(id string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete alert: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return n > 0, nil
}

func scanAlert(rows *sql.Rows) (Alert, error) {
	var a Alert
	var direction string
	var triggeredAt sql.NullInt64

	err := rows.Scan(&a.ID, &a.PortfolioID, &a.Symbol, &a.AssetType, &direction,
		&a.Threshold, &triggeredAt, &a.CreatedAt)
	if err != nil {
		return Alert{}, err
	}

	a.Direction = Direction(direction)
	if triggeredAt.Valid {
		a.TriggeredAt = &triggeredAt.Int64
	}

	return a, nil
}

func nullInt64Ptr(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
