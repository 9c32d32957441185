package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/settings"
	"github.com/redis/go-redis/v9"
)

// CurrentTimeout returns the stored per-check timeout, or the default when
// none was saved yet
func (s *Store) CurrentTimeout(ctx context.Context) (time.Duration, error) {
	ms, err := s.client.Get(ctx, KeyTimeout).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return s.defaultTimeout, nil
		}
		return s.defaultTimeout, fmt.Errorf("failed to get timeout: %w", err)
	}
	return settings.Clamp(time.Duration(ms) * time.Millisecond), nil
}

// SetTimeout clamps and stores the per-check timeout
func (s *Store) SetTimeout(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	clamped := settings.Clamp(timeout)
	if err := s.client.Set(ctx, KeyTimeout, clamped.Milliseconds(), 0).Err(); err != nil {
		return clamped, fmt.Errorf("failed to save timeout: %w", err)
	}
	return clamped, nil
}

// IsFirstScan reports whether no scan completed yet
func (s *Store) IsFirstScan(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, KeyHasScanned).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read scan flag: %w", err)
	}
	return n == 0, nil
}

// MarkScanned records that a scan completed
func (s *Store) MarkScanned(ctx context.Context) error {
	if err := s.client.Set(ctx, KeyHasScanned, "1", 0).Err(); err != nil {
		return fmt.Errorf("failed to save scan flag: %w", err)
	}
	return nil
}
