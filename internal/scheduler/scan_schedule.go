package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/scan"
)

// ScanScheduler starts a full scan on an interval
type ScanScheduler struct {
	session  *scan.Session
	trees    domain.BookmarkStore
	settings domain.Settings
	logger   logger.Logger
	interval time.Duration
	loop     *loop
}

// NewScanScheduler creates a new scan scheduler. A zero interval disables it.
func NewScanScheduler(
	session *scan.Session,
	trees domain.BookmarkStore,
	settings domain.Settings,
	log logger.Logger,
	interval time.Duration,
) *ScanScheduler {
	return &ScanScheduler{
		session:  session,
		trees:    trees,
		settings: settings,
		logger:   log,
		interval: interval,
		loop:     newLoop(interval, nil),
	}
}

// Enabled reports whether periodic scans are configured
func (ss *ScanScheduler) Enabled() bool {
	return ss.interval > 0
}

// Start begins the periodic scans. The first scan runs after one interval.
func (ss *ScanScheduler) Start(ctx context.Context) error {
	if !ss.Enabled() {
		ss.logger.Debug("periodic scans disabled")
		return nil
	}

	ss.loop.run(ctx, func(ctx context.Context, _ bool) {
		if _, err := ss.RunOnce(ctx); err != nil {
			ss.logger.Error("scheduled scan failed to start",
				logger.Error(err))
		}
	})
	return nil
}

// Stop stops the scheduler
func (ss *ScanScheduler) Stop() {
	ss.loop.stop()
}

// RunOnce starts a scan unless one is already running. It returns the new
// scan ID, or "" when the tick was skipped.
func (ss *ScanScheduler) RunOnce(ctx context.Context) (string, error) {
	if ss.session.Running() {
		ss.logger.Info("scan already running, skipping scheduled scan")
		return "", nil
	}

	tree, err := ss.trees.GetTree(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get bookmark tree: %w", err)
	}

	timeout, err := ss.settings.CurrentTimeout(ctx)
	if err != nil {
		ss.logger.Warn("failed to read timeout setting, using default",
			logger.Error(err))
	}

	id, err := ss.session.Start(ctx, tree, timeout)
	if err != nil {
		return "", err
	}

	ss.logger.Info("scheduled scan started",
		logger.String("scan_id", id),
		logger.Duration("timeout", timeout))
	return id, nil
}
