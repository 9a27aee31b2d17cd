// Package modelcache persists fitted classifier models between runs so a
// run can skip refitting when a model already exists.
package modelcache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteCache stores serialized models in a single SQLite table keyed by
// classifier name.
type SQLiteCache struct {
	db   *sql.DB
	path string
}

// NewSQLiteCache opens (or creates) the cache database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if path == "" {
		return nil, fmt.Errorf("cache path is required")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS fitted_models (
		name      TEXT PRIMARY KEY,
		blob      BLOB NOT NULL,
		fitted_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &SQLiteCache{db: db, path: path}, nil
}

// Get returns the cached model blob for name. The second return value is
// false on a miss.
func (c *SQLiteCache) Get(name string) ([]byte, bool, error) {
	var blob []byte
	err := c.db.QueryRow(`SELECT blob FROM fitted_models WHERE name = ?`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached model %q: %w", name, err)
	}
	return blob, true, nil
}

// Put stores (or replaces) the model blob for name.
func (c *SQLiteCache) Put(name string, blob []byte) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO fitted_models (name, blob, fitted_at) VALUES (?, ?, ?)`,
		name, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to cache model %q: %w", name, err)
	}
	return nil
}

// Delete removes a cached model. Missing keys are not an error.
func (c *SQLiteCache) Delete(name string) error {
	if _, err := c.db.Exec(`DELETE FROM fitted_models WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete cached model %q: %w", name, err)
	}
	return nil
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
