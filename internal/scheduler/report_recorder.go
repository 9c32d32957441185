package scheduler

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/scan"
)

type reportSaver interface {
	SaveReport(ctx context.Context, summary *scan.Summary) error
}

// ReportRecorder persists finished scans. Its Record method is a scan.FinishFunc.
type ReportRecorder struct {
	store    reportSaver
	settings domain.Settings
	logger   logger.Logger
}

// NewReportRecorder creates a recorder. store may be nil when no persistence is configured.
func NewReportRecorder(store reportSaver, settings domain.Settings, log logger.Logger) *ReportRecorder {
	return &ReportRecorder{
		store:    store,
		settings: settings,
		logger:   log,
	}
}

// Record saves a completed scan and flags that a scan ran. Cancelled scans are only logged.
func (rr *ReportRecorder) Record(ctx context.Context, summary *scan.Summary, err error) {
	fields := []logger.Field{
		logger.String("scan_id", summary.ID),
		logger.Int("checked", summary.Checked),
		logger.Int("total", summary.Total),
	}

	if err != nil {
		if errors.Is(err, scan.ErrScanCancelled) {
			rr.logger.Info("scan cancelled", fields...)
		} else {
			rr.logger.Error("scan failed", append(fields, logger.Error(err))...)
		}
		return
	}

	rr.logger.Info("scan completed", append(fields,
		logger.Int("invalid", len(summary.Invalid)),
		logger.Int("caveats", len(summary.Caveats)),
		logger.Int("empty_folders", len(summary.EmptyFolders)),
		logger.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)))...)

	if rr.settings != nil {
		if err := rr.settings.MarkScanned(ctx); err != nil {
			rr.logger.Warn("failed to record first scan", logger.Error(err))
		}
	}

	if rr.store != nil {
		if err := rr.store.SaveReport(ctx, summary); err != nil {
			rr.logger.Warn("failed to save scan report", logger.Error(err))
		}
	}
}
