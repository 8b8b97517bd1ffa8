// Package settings manages user preferences stored as key-value pairs in
// portfolio.db (risk appetite, active portfolio, display options).
package settings

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Well-known setting keys.
const (
	KeyActivePortfolio  = "active_portfolio_id"
	KeyRiskAppetite     = "risk_appetite"
	KeyUppercaseSymbols = "uppercase_symbols"
)

// SettingDefaults holds the default value for each known setting.
var SettingDefaults = map[string]string{
	KeyRiskAppetite:     "medium",
	KeyUppercaseSymbols: "true",
}

// Repository handles settings database operations. Settings are stored as
// strings and converted on retrieval.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "settings").Logger(),
	}
}

// Get retrieves a setting value by key.
// Returns nil if the setting doesn't exist (not an error).
func (r *Repository) Get(key string) (*string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &value, nil
}

// GetString returns the setting value, falling back to the registered
// default, then to fallback.
func (r *Repository) GetString(key, fallback string) (string, error) {
	value, err := r.Get(key)
	if err != nil {
		return "", err
	}
	if value != nil {
		return *value, nil
	}
	if def, ok := SettingDefaults[key]; ok {
		return def, nil
	}
	return fallback, nil
}

// GetBool returns the setting as a bool.
func (r *Repository) GetBool(key string, fallback bool) (bool, error) {
	str, err := r.GetString(key, strconv.FormatBool(fallback))
	if err != nil {
		return fallback, err
	}
	value, err := strconv.ParseBool(str)
	if err != nil {
		return fallback, nil
	}
	return value, nil
}

// Set stores a setting value.
func (r *Repository) Set(key, value string) error {
	now := time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, now)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	r.log.Debug().Str("key", key).Msg("Setting updated")
	return nil
}

// Delete removes a setting.
func (r *Repository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
