// Package history stores the daily total-value series of each portfolio,
// one point per day, appended by a scheduled job.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/domain"
)

// Repository handles daily snapshot database operations.
type Repository struct {
	db  *sql.DB // history.db
	log zerolog.Logger
}

var _ domain.SeriesStore = (*Repository)(nil)

// NewRepository creates a new history repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// AppendDailySnapshot records the portfolio's total value for one date.
// Idempotent per (portfolio, date): a second append for the same day
// overwrites the earlier value.
func (r *Repository) AppendDailySnapshot(portfolioID string, date string, valueTry float64) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid snapshot date %q: %w", date, err)
	}

	_, err := r.db.Exec(`
		INSERT INTO daily_snapshots (portfolio_id, snapshot_date, value_try, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(portfolio_id, snapshot_date) DO UPDATE SET
			value_try = excluded.value_try,
			created_at = excluded.created_at
	`, portfolioID, date, valueTry, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to append daily snapshot: %w", err)
	}

	r.log.Debug().Str("portfolio_id", portfolioID).Str("date", date).Float64("value_try", valueTry).Msg("Snapshot appended")
	return nil
}

// ReadSeries returns the full value series of a portfolio, oldest first.
func (r *Repository) ReadSeries(portfolioID string) ([]domain.SnapshotPoint, error) {
	rows, err := r.db.Query(`
		SELECT snapshot_date, value_try FROM daily_snapshots
		WHERE portfolio_id = ? ORDER BY snapshot_date
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var series []domain.SnapshotPoint
	for rows.Next() {
		var p domain.SnapshotPoint
		if err := rows.Scan(&p.Date, &p.ValueTry); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		series = append(series, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return series, nil
}

// ClearSeries removes the series of one portfolio. Used by the ledger's
// reset and clear-history operations.
func (r *Repository) ClearSeries(portfolioID string) error {
	if _, err := r.db.Exec("DELETE FROM daily_snapshots WHERE portfolio_id = ?", portfolioID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	r.log.Info().Str("portfolio_id", portfolioID).Msg("Value series cleared")
	return nil
}
