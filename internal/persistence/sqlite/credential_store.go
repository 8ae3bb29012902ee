package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cuentas-claras/panel/internal/persistence"
)

// CredentialStore persists the single sealed credential blob.
type CredentialStore struct {
	db *sql.DB
}

// SaveSealedCredentials upserts the blob. There is only ever one row.
func (s *CredentialStore) SaveSealedCredentials(ctx context.Context, creds persistence.SealedCredentials) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite: credential store not initialized")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (id, sealed, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET sealed = excluded.sealed, updated_at = excluded.updated_at
	`, creds.Sealed, creds.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: save credentials: %w", err)
	}
	return nil
}

// LoadSealedCredentials returns the stored blob, or ErrNotFound when the
// vault is empty.
func (s *CredentialStore) LoadSealedCredentials(ctx context.Context) (persistence.SealedCredentials, error) {
	if s == nil || s.db == nil {
		return persistence.SealedCredentials{}, fmt.Errorf("sqlite: credential store not initialized")
	}

	var creds persistence.SealedCredentials
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `SELECT sealed, updated_at FROM credentials WHERE id = 1`).Scan(&creds.Sealed, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.SealedCredentials{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.SealedCredentials{}, fmt.Errorf("sqlite: load credentials: %w", err)
	}

	if parsed, parseErr := time.Parse(time.RFC3339Nano, updatedAt); parseErr == nil {
		creds.UpdatedAt = parsed
	}
	return creds, nil
}

// ClearSealedCredentials removes the blob. Clearing an empty vault is fine.
func (s *CredentialStore) ClearSealedCredentials(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite: credential store not initialized")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("sqlite: clear credentials: %w", err)
	}
	return nil
}
