package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/exon-report/internal/auth"
	"github.com/j-veylop/exon-report/internal/models"
)

// TokenStore keeps the token record in the credentials table.
type TokenStore struct {
	db   *DB
	name string
}

// NewTokenStore returns a store for the default credential slot.
func NewTokenStore(db *DB) *TokenStore {
	return &TokenStore{db: db, name: defaultCredentialName}
}

// Load returns the stored record, auth.ErrNoToken when there is none, or an
// error wrapping auth.ErrStoreCorrupt for unreadable rows.
func (s *TokenStore) Load() (models.TokenRecord, error) {
	var rec models.TokenRecord
	var expiresAt string

	err := s.db.QueryRowContext(context.Background(),
		"SELECT access_token, refresh_token, expires_at FROM credentials WHERE name = ?", s.name,
	).Scan(&rec.AccessToken, &rec.RefreshToken, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TokenRecord{}, auth.ErrNoToken
	}
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("failed to query credentials: %w", err)
	}

	if rec.AccessToken == "" || rec.RefreshToken == "" {
		return models.TokenRecord{}, fmt.Errorf("%w: empty token", auth.ErrStoreCorrupt)
	}
	rec.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("%w: %v", auth.ErrStoreCorrupt, err)
	}
	return rec, nil
}

// Save replaces the stored record.
func (s *TokenStore) Save(rec models.TokenRecord) error {
	query := `
		INSERT INTO credentials (name, access_token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(context.Background(), query,
		s.name,
		rec.AccessToken,
		rec.RefreshToken,
		rec.ExpiresAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Delete removes the stored record.
func (s *TokenStore) Delete() error {
	if _, err := s.db.ExecContext(context.Background(), "DELETE FROM credentials WHERE name = ?", s.name); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

var _ auth.Store = (*TokenStore)(nil)
