package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// ErrStoreUnavailable indicates the backing database could not be reached.
// Callers treat it as a persistence outage, not a capture bug.
var ErrStoreUnavailable = errors.New("event store unavailable")

// Store implements the storage interface using SQLite.
//
// Writes are serialized per session: chunk ordering within one session
// must never interleave, but different sessions (panes, tabs) write
// concurrently without blocking each other. Reads are unthrottled.
type Store struct {
	db *sql.DB

	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// New creates a new SQLite storage backend at path.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: failed to create directory: %v", ErrStoreUnavailable, err)
		}
	}

	// WAL mode for better concurrency between capture writers and
	// analysis readers.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrStoreUnavailable, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: failed to ping database: %v", ErrStoreUnavailable, err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{
		db:           db,
		sessionLocks: make(map[string]*sync.Mutex),
	}, nil
}

// sessionLock returns the write mutex for one session, creating it on
// first use.
func (s *Store) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[sessionID] = lock
	}
	return lock
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
