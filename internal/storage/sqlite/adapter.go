package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/devpulse/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recent_searches (
		key TEXT NOT NULL,
		username TEXT NOT NULL,
		seq INTEGER NOT NULL,
		searched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (key, username)
	);

	CREATE INDEX IF NOT EXISTS idx_recent_searches_key_seq ON recent_searches(key, seq);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// AddRecentSearch records username as the most recent search
func (s *sqliteStorage) AddRecentSearch(ctx context.Context, username string) error {
	username, err := storage.NormalizeUsername(username)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM recent_searches WHERE key = ?
	`, storage.RecentSearchesKey).Scan(&seq)
	if err != nil {
		return fmt.Errorf("failed to read search sequence: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO recent_searches (key, username, seq, searched_at)
		VALUES (?, ?, ?, ?)
	`, storage.RecentSearchesKey, username, seq, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save recent search: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM recent_searches
		WHERE key = ? AND username NOT IN (
			SELECT username FROM recent_searches
			WHERE key = ?
			ORDER BY seq DESC
			LIMIT ?
		)
	`, storage.RecentSearchesKey, storage.RecentSearchesKey, storage.MaxRecentSearches)
	if err != nil {
		return fmt.Errorf("failed to prune recent searches: %w", err)
	}

	return tx.Commit()
}

// RecentSearches returns the stored usernames, most recent first
func (s *sqliteStorage) RecentSearches(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username FROM recent_searches
		WHERE key = ?
		ORDER BY seq DESC
		LIMIT ?
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
func (s *sqliteStorage) ClearRecentSearches(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recent_searches WHERE key = ?`, storage.RecentSearchesKey)
	return err
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
