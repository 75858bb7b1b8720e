// Package sqlite provides the device-local workspace cache.
//
// The cache is a single key/value table in a WAL-mode SQLite file. Each key
// is one dataset namespace ("folders", "projects", ...) holding a whole
// collection as JSON. There are no partial writes: Set replaces the value.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	wsRepo "github.com/parkyoonha/searchedia-sub001/internal/domain/repositories/workspace"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache (
	namespace TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// Cache implements workspace.LocalCache on SQLite.
type Cache struct {
	conn   *sql.DB
	path   string
	logger *slog.Logger
}

var _ wsRepo.LocalCache = (*Cache)(nil)

// Open opens (creating if needed) the cache database at path.
//
// The caller MUST call Close() when done.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache: %w", err)
	}

	// Reads and writes are synchronous from the engine's point of view
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	logger.Debug("local cache opened", "path", path)

	return &Cache{conn: conn, path: path, logger: logger}, nil
}

// Get returns the value stored under key, or domain.ErrNotFound.
func (c *Cache) Get(key string) ([]byte, error) {
	var value []byte
	err := c.conn.QueryRow("SELECT value FROM cache WHERE namespace = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cache key %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read cache key %q: %w", key, err)
	}
	return value, nil
}

// Set replaces the value stored under key.
func (c *Cache) Set(key string, value []byte) error {
	_, err := c.conn.Exec(`
		INSERT INTO cache (namespace, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write cache key %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (c *Cache) Remove(key string) error {
	if _, err := c.conn.Exec("DELETE FROM cache WHERE namespace = ?", key); err != nil {
		return fmt.Errorf("remove cache key %q: %w", key, err)
	}
	return nil
}

// Clear deletes every namespace.
func (c *Cache) Clear() error {
	if _, err := c.conn.Exec("DELETE FROM cache"); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Close checkpoints the WAL and closes the database.
func (c *Cache) Close() error {
	if c.conn == nil {
		return nil
	}

	if _, err := c.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		c.logger.Warn("failed to checkpoint cache WAL", "error", err)
	}

	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}

	c.conn = nil
	return nil
}
