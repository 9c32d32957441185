package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/settings"
)

const (
	keyTimeout    = "timeout_ms"
	keyHasScanned = "has_scanned"
)

// CurrentTimeout returns the stored per-check timeout, or the default when
// none was saved yet.
func (s *Store) CurrentTimeout(ctx context.Context) (time.Duration, error) {
	v, err := s.getSetting(ctx, keyTimeout)
	if err != nil {
		return s.defaultTimeout, fmt.Errorf("failed to get timeout: %w", err)
	}
	if v == "" {
		return s.defaultTimeout, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return s.defaultTimeout, fmt.Errorf("failed to parse timeout %q: %w", v, err)
	}
	return settings.Clamp(time.Duration(ms) * time.Millisecond), nil
}

// SetTimeout clamps and stores the per-check timeout.
func (s *Store) SetTimeout(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	clamped := settings.Clamp(timeout)
	if err := s.putSetting(ctx, keyTimeout, strconv.FormatInt(clamped.Milliseconds(), 10)); err != nil {
		return clamped, fmt.Errorf("failed to save timeout: %w", err)
	}
	return clamped, nil
}

func (s *Store) IsFirstScan(ctx context.Context) (bool, error) {
	v, err := s.getSetting(ctx, keyHasScanned)
	if err != nil {
		return false, fmt.Errorf("failed to read scan flag: %w", err)
	}
	return v == "", nil
}

func (s *Store) MarkScanned(ctx context.Context) error {
	if err := s.putSetting(ctx, keyHasScanned, "1"); err != nil {
		return fmt.Errorf("failed to save scan flag: %w", err)
	}
	return nil
}

func (s *Store) getSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (s *Store) putSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}
