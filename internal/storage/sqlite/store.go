// Package sqlite provides the durable AccountStore backing.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anti-api/gateway/internal/domain"
	"github.com/anti-api/gateway/internal/storage"
)

// Store is a SQLite implementation of storage.AccountStore.
type Store struct {
	db *sql.DB
}

var _ storage.AccountStore = (*Store)(nil)

// New opens (and if necessary creates) the account database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS accounts (
		provider TEXT PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT,
		expires_at TIMESTAMP NOT NULL,
		email TEXT,
		project_id TEXT,
		updated_at TIMESTAMP NOT NULL
	)`)
	return err
}

func (s *Store) Get(ctx context.Context, provider string) (*domain.Credential, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, expires_at, email, project_id
		 FROM accounts WHERE provider = ?`, provider)

	var cred domain.Credential
	var refreshToken, email, projectID sql.NullString
	if err := row.Scan(&cred.AccessToken, &refreshToken, &cred.ExpiresAt, &email, &projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query account: %w", err)
	}

	cred.RefreshToken = refreshToken.String
	cred.Email = email.String
	cred.ProjectID = projectID.String
	return &cred, nil
}

func (s *Store) Put(ctx context.Context, provider string, cred *domain.Credential) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (provider, access_token, refresh_token, expires_at, email, project_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			email = excluded.email,
			project_id = excluded.project_id,
			updated_at = excluded.updated_at`,
		provider, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt,
		cred.Email, cred.ProjectID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store account: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, provider string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE provider = ?`, provider); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
