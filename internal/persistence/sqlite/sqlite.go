// Package sqlite implements the persistence interfaces on a local SQLite
// database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	sealed BLOB NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notification_cache (
	id INTEGER PRIMARY KEY,
	kind TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	target TEXT NOT NULL DEFAULT '',
	is_read INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	relative_age TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_notification_cache_created_at
	ON notification_cache (created_at DESC);
`

// Storage wraps the SQLite handle shared by the concrete stores.
type Storage struct {
	db *sql.DB
}

// Open opens the database file identified by dsn.
func Open(dsn string) (*Storage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", dsn, err)
	}
	// The driver serializes access; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &Storage{db: db}, nil
}

// Migrate creates the schema if it does not exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite: storage not initialized")
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CredentialStore returns the credential store backed by this database.
func (s *Storage) CredentialStore() *CredentialStore {
	return &CredentialStore{db: s.db}
}

// NotificationCache returns the notification cache backed by this database.
func (s *Storage) NotificationCache() *NotificationCache {
	return &NotificationCache{db: s.db}
}
