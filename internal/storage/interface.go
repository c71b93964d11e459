package storage

import (
	"context"
	"strings"
)

const (
	// RecentSearchesKey is the fixed key the search history is stored under
	RecentSearchesKey = "devpulse_recent_searches"

	// MaxRecentSearches is the number of usernames kept in the history
	MaxRecentSearches = 5
)

// Storage is the abstract interface for the persistence layer
type Storage interface {
	// AddRecentSearch moves username to the front of the history, dropping
	// any earlier copy and anything beyond MaxRecentSearches
	AddRecentSearch(ctx context.Context, username string) error

	// RecentSearches returns the history, most recent first
	RecentSearches(ctx context.Context) ([]string, error)

	// ClearRecentSearches empties the history
	ClearRecentSearches(ctx context.Context) error

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}

// ErrEmptyUsername is returned when a blank username is added to the history
var ErrEmptyUsername = &Error{Op: "add recent search", Message: "username is empty"}

// Error is a storage-level validation error
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Message
}

// NormalizeUsername trims a username before it is stored
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrEmptyUsername
	}
	return username, nil
}
