// Package storage is the SQLite persistence layer: the model response cache,
// the bot allow-list and the optional history backend.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// CacheEntry is a cached model response.
type CacheEntry struct {
	Kind      string // "rounds" or "fairness"
	Payload   []byte // JSON-encoded result
	CreatedAt time.Time
}

// Store is the persistence surface used outside the history ledger.
type Store interface {
	Close() error

	GetAnalysisCache(hash string) (*CacheEntry, error)
	SetAnalysisCache(hash string, entry *CacheEntry) error

	IsUserAllowed(telegramID int64) (bool, error)
	AddAllowedUser(telegramID, addedBy int64) error
	RemoveAllowedUser(telegramID int64) error
	GetAllowedUsers() ([]AllowedUser, error)
}

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store and the SQLite history backend. Statements are
// guarded by mu so reads never observe a half-applied history rewrite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// migrations are applied in order; the schema version is their count, kept in
// PRAGMA user_version. Append only.
var migrations = []string{
	`CREATE TABLE analysis_cache (
		input_hash TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		payload    TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE allowed_users (
		telegram_id INTEGER PRIMARY KEY,
		added_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		added_by    INTEGER
	)`,
	`CREATE TABLE history_tokens (
		position INTEGER PRIMARY KEY,
		token    TEXT NOT NULL UNIQUE
	)`,
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and brings
// its schema up to date. ":memory:" gives a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: :memory: databases are per connection, and SQLite
	// serializes writers anyway
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	if dbPath != ":memory:" {
		if err := os.Chmod(dbPath, 0600); err != nil {
			log.Warn().Err(err).Str("dbPath", dbPath).Msg("failed to restrict database permissions")
		}
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record schema version %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
	}
	if version < len(migrations) {
		log.Debug().Int("from", version).Int("to", len(migrations)).Msg("database schema migrated")
	}
	return nil
}

// SchemaVersion reports the applied migration count.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetAnalysisCache looks up a result by input hash. A miss is (nil, nil).
func (s *SQLiteStore) GetAnalysisCache(hash string) (*CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		entry   CacheEntry
		payload string
	)
	err := s.db.QueryRow(
		"SELECT kind, payload, created_at FROM analysis_cache WHERE input_hash = ?", hash,
	).Scan(&entry.Kind, &payload, &entry.CreatedAt)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to query analysis cache: %w", err)
	}

	entry.Payload = []byte(payload)
	return &entry, nil
}

// SetAnalysisCache stores or replaces the result for hash.
func (s *SQLiteStore) SetAnalysisCache(hash string, entry *CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO analysis_cache (input_hash, kind, payload) VALUES (?, ?, ?)
		ON CONFLICT(input_hash) DO UPDATE SET
			kind = excluded.kind,
			payload = excluded.payload,
			created_at = CURRENT_TIMESTAMP`,
		hash, entry.Kind, string(entry.Payload))
	if err != nil {
		return fmt.Errorf("failed to cache analysis result: %w", err)
	}
	return nil
}
