package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kurihiro0119/devpulse/internal/storage"
)

// postgresStorage implements the Storage interface for PostgreSQL
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(connStr string) (storage.Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &postgresStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *postgresStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recent_searches (
		key TEXT NOT NULL,
		username TEXT NOT NULL,
		seq BIGINT NOT NULL,
		searched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (key, username)
	);

	CREATE INDEX IF NOT EXISTS idx_recent_searches_key_seq ON recent_searches(key, seq);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// AddRecentSearch records username as the most recent search
func (s *postgresStorage) AddRecentSearch(ctx context.Context, username string) error {
	username, err := storage.NormalizeUsername(username)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Serialize writers on the history key so sequence numbers stay unique.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, storage.RecentSearchesKey); err != nil {
		return fmt.Errorf("failed to lock recent searches: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recent_searches (key, username, seq, searched_at)
		VALUES ($1, $2, (SELECT COALESCE(MAX(seq), 0) + 1 FROM recent_searches WHERE key = $1), $3)
		ON CONFLICT (key, username) DO UPDATE SET
			seq = EXCLUDED.seq,
			searched_at = EXCLUDED.searched_at
	`, storage.RecentSearchesKey, username, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save recent search: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM recent_searches
		WHERE key = $1 AND username NOT IN (
			SELECT username FROM recent_searches
			WHERE key = $1
			ORDER BY seq DESC
			LIMIT $2
		)
	`, storage.RecentSearchesKey, storage.MaxRecentSearches)
	if err != nil {
		return fmt.Errorf("failed to prune recent searches: %w", err)
	}

	return tx.Commit()
}

// RecentSearches returns the stored usernames, most recent first
func (s *postgresStorage) RecentSearches(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username FROM recent_searches
		WHERE key = $1
		ORDER BY seq DESC
		LIMIT $2
	`, storage.RecentSearchesKey, storage.MaxRecentSearches)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usernames := []string{}
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, err
		}
		usernames = append(usernames, username)
	}
	return usernames, rows.Err()
}

// ClearRecentSearches removes the whole history
func (s *postgresStorage) ClearRecentSearches(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recent_searches WHERE key = $1`, storage.RecentSearchesKey)
	return err
}

// Close closes the database connection
func (s *postgresStorage) Close() error {
	return s.db.Close()
}
