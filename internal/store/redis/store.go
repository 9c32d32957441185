package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/settings"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultReportTTL is how long a scan report is kept (30 days)
	DefaultReportTTL = 30 * 24 * time.Hour
	// DefaultReportHistory is how many report IDs the index keeps
	DefaultReportHistory = 20
)

// Store persists settings, scan reports and the bookmark tree in Redis
type Store struct {
	client         *redis.Client
	reportTTL      time.Duration
	history        int
	defaultTimeout time.Duration
}

// StoreOption customizes a Store
type StoreOption func(*Store)

// WithReportTTL sets the expiry of saved reports
func WithReportTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.reportTTL = ttl
		}
	}
}

// WithReportHistory sets how many reports stay listed
func WithReportHistory(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.history = n
		}
	}
}

// WithDefaultTimeout sets the per-check timeout returned until one is saved
func WithDefaultTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.defaultTimeout = settings.Clamp(d)
		}
	}
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, opts ...StoreOption) *Store {
	s := &Store{
		client:         client,
		reportTTL:      DefaultReportTTL,
		history:        DefaultReportHistory,
		defaultTimeout: settings.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks that Redis answers
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}
