package ledger

import (
	"database/sql"

	"github.com/ozgurkara/portfoy/internal/domain"
)

// Transactional entry points used by the import path, which replaces a
// portfolio's ledger wholesale inside one transaction.

// UpsertHoldingTx inserts or updates a holding within the caller's
// transaction.
func (r *Repository) UpsertHoldingTx(tx *sql.Tx, h domain.Holding) error {
	return upsertHoldingTx(tx, h)
}

// InsertTradeTx appends a realized trade within the caller's transaction.
func (r *Repository) InsertTradeTx(tx *sql.Tx, t domain.RealizedTrade) error {
	return insertTradeTx(tx, t)
}

// ClearPortfolioTx removes all holdings and realized trades of a portfolio
// within the caller's transaction.
func (r *Repository) ClearPortfolioTx(tx *sql.Tx, portfolioID string) error {
	if err := clearHoldingsTx(tx, portfolioID); err != nil {
		return err
	}
	return clearTradesTx(tx, portfolioID)
}
