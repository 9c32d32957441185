// Package sqlite persists settings, reports and the bookmark tree in a
// single SQLite file. It backs single-node installs that run without Redis.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/deadmark/internal/settings"
)

const (
	// DefaultReportTTL is how long a scan report is kept (30 days)
	DefaultReportTTL = 30 * 24 * time.Hour
	// DefaultReportHistory is how many reports stay listed
	DefaultReportHistory = 20
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS reports (
    id          TEXT PRIMARY KEY,
    body        TEXT NOT NULL,
    finished_at INTEGER NOT NULL,
    saved_at    INTEGER NOT NULL,
    expires_at  INTEGER NOT NULL,
    listed      INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_reports_listed ON reports(listed, finished_at);
CREATE TABLE IF NOT EXISTS trees (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    body       TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// Store implements store.Store on SQLite.
type Store struct {
	db             *sql.DB
	reportTTL      time.Duration
	history        int
	defaultTimeout time.Duration
	now            func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithReportTTL sets the expiry of saved reports.
func WithReportTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.reportTTL = ttl
		}
	}
}

// WithReportHistory sets how many reports stay listed.
func WithReportHistory(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.history = n
		}
	}
}

// WithDefaultTimeout sets the per-check timeout returned until one is saved.
func WithDefaultTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.defaultTimeout = settings.Clamp(d)
		}
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New opens (or creates) the database at dbPath and applies the schema.
func New(dbPath string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time, SQLite serializes them anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{
		db:             db,
		reportTTL:      DefaultReportTTL,
		history:        DefaultReportHistory,
		defaultTimeout: settings.DefaultTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}
