package storage

import (
	"context"
	"errors"
	"time"

	"github.com/runebook/ambient/internal/events"
	"github.com/runebook/ambient/internal/storage/sqlite"
	"github.com/runebook/ambient/internal/types"
)

// ErrStoreUnavailable is returned when the backing medium cannot be
// reached. Writes are never silently dropped: callers always learn about
// a persistence failure, even though capture must not crash over it.
var ErrStoreUnavailable = sqlite.ErrStoreUnavailable

// Storage defines the interface for the durable terminal event log and
// the suggestion records derived from it.
type Storage interface {
	// Terminal events - append-only observations from shell hooks
	SaveEvent(ctx context.Context, event *events.TerminalEvent) error
	GetEvents(ctx context.Context, filter events.EventFilter) ([]*events.TerminalEvent, error)
	GetEventsByCommand(ctx context.Context, commandID string) ([]*events.TerminalEvent, error)
	GetEventsBySession(ctx context.Context, sessionID string, limit int) ([]*events.TerminalEvent, error)

	// Retention sweep - deletes events older than the cutoff, or all
	// events when the cutoff is the zero time
	ClearEvents(ctx context.Context, olderThan time.Time) (int, error)

	// TrimEvents enforces a global event count limit by deleting the
	// oldest events beyond max. Returns the number deleted.
	TrimEvents(ctx context.Context, max int) (int, error)

	// Statistics for the status surface and operator diagnostics
	GetStats(ctx context.Context) (*sqlite.Stats, error)

	// Suggestions - one batch per analyzed command; a new batch for the
	// same command supersedes the previous one
	SaveSuggestions(ctx context.Context, commandID string, suggestions []*types.Suggestion) error
	GetSuggestions(ctx context.Context, commandID string) ([]*types.Suggestion, error)
	GetLatestSuggestions(ctx context.Context, limit int) ([]*types.Suggestion, error)
	SetSuggestionDismissed(ctx context.Context, id string, dismissed bool) error
	SetSuggestionApplied(ctx context.Context, id string) error

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path.
	// Special value ":memory:" creates an in-memory database (useful for tests).
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".ambient/events.db",
	}
}

// NewStorage creates a new SQLite storage backend.
// The ctx parameter is currently unused but kept for API consistency
// and future extension possibilities.
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	return sqlite.New(cfg.Path)
}

// IsUnavailable reports whether err indicates the persistence layer could
// not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
