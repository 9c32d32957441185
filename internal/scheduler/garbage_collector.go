package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/logger"
)

// reportIndex is the part of the store that tracks saved reports
type reportIndex interface {
	ListReportIDs(ctx context.Context) ([]string, error)
	ReportExists(ctx context.Context, id string) (bool, error)
	ForgetReports(ctx context.Context, ids ...string) error
}

// GarbageCollector drops index entries of reports whose body expired
type GarbageCollector struct {
	store    reportIndex
	logger   logger.Logger
	interval time.Duration
	loop     *loop
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(
	store reportIndex,
	log logger.Logger,
	interval time.Duration,
) *GarbageCollector {
	return &GarbageCollector{
		store:    store,
		logger:   log,
		interval: interval,
		loop:     newLoop(interval, nil),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	gc.loop.run(ctx, func(ctx context.Context, _ bool) {
		if _, err := gc.Collect(ctx); err != nil {
			gc.logger.Error("garbage collection failed",
				logger.Error(err))
		}
	})
	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	gc.loop.stop()
}

// Collect removes expired reports from the index and returns how many were dropped
func (gc *GarbageCollector) Collect(ctx context.Context) (int, error) {
	gc.logger.Debug("running garbage collection for expired reports")

	ids, err := gc.store.ListReportIDs(ctx)
	if err != nil {
		return 0, err
	}

	var expired []string
	for _, id := range ids {
		exists, err := gc.store.ReportExists(ctx, id)
		if err != nil {
			gc.logger.Warn("failed to check report",
				logger.String("scan_id", id),
				logger.Error(err))
			continue
		}
		if !exists {
			expired = append(expired, id)
		}
	}

	if len(expired) == 0 {
		gc.logger.Debug("no reports to garbage collect")
		return 0, nil
	}

	if err := gc.store.ForgetReports(ctx, expired...); err != nil {
		return 0, fmt.Errorf("failed to drop expired reports: %w", err)
	}

	gc.logger.Info("garbage collection completed",
		logger.Int("reports_dropped", len(expired)),
		logger.Int("reports_kept", len(ids)-len(expired)))

	return len(expired), nil
}
