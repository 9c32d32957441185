package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/deadmark/internal/scan"
	"github.com/MrSnakeDoc/deadmark/internal/store"
	"github.com/redis/go-redis/v9"
)

// SaveReport stores a scan summary, makes it the last report and trims the
// index to the configured history
func (s *Store) SaveReport(ctx context.Context, summary *scan.Summary) error {
	if summary == nil || summary.ID == "" {
		return fmt.Errorf("failed to save report: missing id")
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, ReportKey(summary.ID), data, s.reportTTL)
	pipe.Set(ctx, KeyLastReport, data, s.reportTTL)
	pipe.ZAdd(ctx, KeyReportIndex, redis.Z{
		Score:  float64(summary.FinishedAt.Unix()),
		Member: summary.ID,
	})
	pipe.ZRemRangeByRank(ctx, KeyReportIndex, 0, int64(-s.history-1))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport retrieves a report by ID
func (s *Store) GetReport(ctx context.Context, id string) (*scan.Summary, error) {
	summary, err := s.getSummary(ctx, ReportKey(id))
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrReportNotFound, id)
	}
	return summary, nil
}

// GetLastReport returns the most recent report, or nil when none was saved
func (s *Store) GetLastReport(ctx context.Context) (*scan.Summary, error) {
	return s.getSummary(ctx, KeyLastReport)
}

// ListReportIDs returns the indexed report IDs, newest first
func (s *Store) ListReportIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRevRange(ctx, KeyReportIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return ids, nil
}

// ReportExists reports whether the report body is still stored
func (s *Store) ReportExists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, ReportKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check report: %w", err)
	}
	return n > 0, nil
}

// ForgetReports removes IDs from the report index
func (s *Store) ForgetReports(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := s.client.ZRem(ctx, KeyReportIndex, members...).Err(); err != nil {
		return fmt.Errorf("failed to forget reports: %w", err)
	}
	return nil
}

func (s *Store) getSummary(ctx context.Context, key string) (*scan.Summary, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var summary scan.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &summary, nil
}
