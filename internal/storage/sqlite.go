package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hollisfi/ledgerlens/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// patternCacheTTL bounds how stale the in-memory pattern snapshot may get.
const patternCacheTTL = 5 * time.Minute

// queryable abstracts *sql.DB and *sql.Tx so read helpers can run inside or
// outside a transaction.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	cacheExpiry  time.Time
	db           *sql.DB
	patternCache []model.Pattern
	dbPath       string
	cacheMutex   sync.RWMutex
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// cachedPatterns returns the pattern snapshot if it is still fresh.
func (s *SQLiteStorage) cachedPatterns() []model.Pattern {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()

	if s.patternCache == nil || time.Now().After(s.cacheExpiry) {
		return nil
	}
	return s.patternCache
}

func (s *SQLiteStorage) cachePatterns(patterns []model.Pattern) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.patternCache = patterns
	s.cacheExpiry = time.Now().Add(patternCacheTTL)
}

// invalidatePatternCache drops the snapshot after any pattern write.
func (s *SQLiteStorage) invalidatePatternCache() {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.patternCache = nil
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *SQLiteStorage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
