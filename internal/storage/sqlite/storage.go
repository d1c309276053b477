// Package sqlite provides a SQLite-backed settings store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrEmptyPluginID is returned when a store is opened without a plugin id.
var ErrEmptyPluginID = errors.New("plugin id cannot be empty")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS plugin_data (
	plugin_id  TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store keeps one blob per plugin id in a shared database file.
type Store struct {
	db       *sql.DB
	pluginID string
	now      func() time.Time
}

// Open creates or opens the database at dbPath and returns the store for
// pluginID.
func Open(dbPath, pluginID string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("sqlite storage: db path cannot be empty")
	}
	if strings.TrimSpace(pluginID) == "" {
		return nil, fmt.Errorf("sqlite storage: %w", ErrEmptyPluginID)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite storage: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: open db: %w", err)
	}

	s := &Store{db: db, pluginID: pluginID, now: time.Now}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("sqlite storage: set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("sqlite storage: create schema: %w", err)
	}
	return nil
}

// Close closes the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the plugin's blob. A missing row is reported as absent.
func (s *Store) Load(ctx context.Context) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM plugin_data WHERE plugin_id = ?`, s.pluginID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("sqlite storage: load %s: %w", s.pluginID, err)
	}
	return data, true, nil
}

// Save upserts the plugin's blob.
func (s *Store) Save(ctx context.Context, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO plugin_data (plugin_id, data, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(plugin_id) DO UPDATE SET
	data = excluded.data,
	updated_at = excluded.updated_at`,
		s.pluginID, data, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("sqlite storage: save %s: %w", s.pluginID, err)
	}
	return nil
}

// UpdatedAt returns when the plugin's blob was last saved.
func (s *Store) UpdatedAt(ctx context.Context) (time.Time, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM plugin_data WHERE plugin_id = ?`, s.pluginID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("sqlite storage: updated_at %s: %w", s.pluginID, err)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("sqlite storage: parse updated_at %q: %w", raw, err)
	}
	return t, true, nil
}
