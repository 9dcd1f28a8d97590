// Package cache provides a SQLite-backed cache of direct property reads,
// keyed by file path and content checksum so stale entries are never served.
package cache

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Leocrydis/SENomexLayers/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS parts (
	path      TEXT PRIMARY KEY,
	checksum  TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS props (
	path     TEXT NOT NULL,
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (path, position)
);

CREATE INDEX IF NOT EXISTS idx_props_path ON props(path);
`

// Cache wraps a sql.DB with property-cache operations.
type Cache struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Cache, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: apply schema: %w", err)
	}
	return &Cache{conn: conn}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.conn.Close()
}

// Get returns the cached custom properties for path if the stored checksum
// still matches; ok is false on a miss. Cached values are stored stringified,
// which is all downstream consumers ever see.
func (c *Cache) Get(path, checksum string) ([]models.Property, bool, error) {
	var stored string
	err := c.conn.QueryRow(`SELECT checksum FROM parts WHERE path = ?`, path).Scan(&stored)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: lookup %s: %w", path, err)
	}
	if stored != checksum {
		return nil, false, nil
	}

	rows, err := c.conn.Query(`SELECT name, value FROM props WHERE path = ? ORDER BY position`, path)
	if err != nil {
		return nil, false, fmt.Errorf("cache: load props %s: %w", path, err)
	}
	defer rows.Close()

	props := []models.Property{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, false, fmt.Errorf("cache: scan prop: %w", err)
		}
		props = append(props, models.Property{Name: name, Value: models.StringValue(value)})
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("cache: iterate props: %w", err)
	}
	return props, true, nil
}

// Put replaces the cached properties for path within a transaction.
func (c *Cache) Put(path, checksum string, props []models.Property) error {
	tx, err := c.conn.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO parts (path, checksum, cached_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			checksum  = excluded.checksum,
			cached_at = excluded.cached_at
	`, path, checksum)
	if err != nil {
		return fmt.Errorf("cache: upsert part: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM props WHERE path = ?`, path); err != nil {
		return fmt.Errorf("cache: clear props: %w", err)
	}
	if len(props) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO props (path, position, name, value) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("cache: prepare prop insert: %w", err)
		}
		defer stmt.Close()
		for i, p := range props {
			if _, err := stmt.Exec(path, i, p.Name, p.Text()); err != nil {
				return fmt.Errorf("cache: insert prop: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Invalidate drops the cached entry for path, if any.
func (c *Cache) Invalidate(path string) error {
	tx, err := c.conn.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM props WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM parts WHERE path = ?`, path)

	return tx.Commit()
}

// Paths returns every cached path. The watcher uses it to reconcile the
// cache after rename storms.
func (c *Cache) Paths() (map[string]struct{}, error) {
	rows, err := c.conn.Query(`SELECT path FROM parts`)
	if err != nil {
		return nil, fmt.Errorf("cache: list paths: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("cache: scan path: %w", err)
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}
