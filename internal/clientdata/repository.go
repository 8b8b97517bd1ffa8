// Package clientdata provides persistent caching for external API client
// responses. Payloads are msgpack blobs with expiration timestamps for
// cache-first behavior; stale data can still be read as a fallback when the
// upstream API is down.
package clientdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// AllTables lists all tables in cache.db for cleanup operations.
var AllTables = []string{
	"quotes",
	"exchangerate",
	"tefas_funds",
}

// validTables is a set for O(1) table name validation.
var validTables = func() map[string]bool {
	m := make(map[string]bool, len(AllTables))
	for _, t := range AllTables {
		m[t] = true
	}
	return m
}()

// Repository provides cache operations for client data.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// validateTable ensures the table name is in our allowed list.
// This prevents SQL injection through table names.
func validateTable(table string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid table name: %s", table)
	}
	return nil
}

// Store saves data with expiration = now + ttl.
func (r *Repository) Store(table, key string, data interface{}, ttl time.Duration) error {
	if err := validateTable(table); err != nil {
		return err
	}

	blob, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	now := time.Now().Unix()
	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (key, data, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, table)

	if _, err := r.db.Exec(query, key, blob, now+int64(ttl.Seconds()), now); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	return nil
}

// GetIfFresh returns the cached payload when it has not expired, decoded
// into dest. Returns false when the entry is missing or stale.
func (r *Repository) GetIfFresh(table, key string, dest interface{}) (bool, error) {
	return r.get(table, key, dest, true)
}

// GetStale returns the cached payload regardless of expiration.
// Stale data beats no data when the upstream API fails.
func (r *Repository) GetStale(table, key string, dest interface{}) (bool, error) {
	return r.get(table, key, dest, false)
}

func (r *Repository) get(table, key string, dest interface{}, freshOnly bool) (bool, error) {
	if err := validateTable(table); err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT data, expires_at FROM %s WHERE key = ?", table)

	var blob []byte
	var expiresAt int64
	err := r.db.QueryRow(query, key).Scan(&blob, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if freshOnly && time.Now().Unix() > expiresAt {
		return false, nil
	}

	if err := msgpack.Unmarshal(blob, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	return true, nil
}

// DeleteExpired removes expired rows from one table, returning the number
// deleted.
func (r *Repository) DeleteExpired(table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table)
	result, err := r.db.Exec(query, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}

	deleted, _ := result.RowsAffected()
	return deleted, nil
}
