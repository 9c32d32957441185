package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/index"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/scan"
)

// snapshotSource is the part of the store read on startup
type snapshotSource interface {
	GetTree(ctx context.Context) (*domain.Node, error)
	GetLastReport(ctx context.Context) (*scan.Summary, error)
}

// StoreSyncer restores the bookmark tree and the last report from the store on startup
type StoreSyncer struct {
	store   snapshotSource
	index   *index.MemoryStore
	session *scan.Session
	logger  logger.Logger
}

// NewStoreSyncer creates a new store syncer
func NewStoreSyncer(
	store snapshotSource,
	idx *index.MemoryStore,
	session *scan.Session,
	log logger.Logger,
) *StoreSyncer {
	return &StoreSyncer{
		store:   store,
		index:   idx,
		session: session,
		logger:  log,
	}
}

// Sync loads the stored tree and report. A failure on one does not skip the other.
func (rs *StoreSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing bookmark tree and last report from store")

	tree, treeErr := rs.store.GetTree(ctx)
	switch {
	case treeErr != nil:
		rs.logger.Warn("failed to restore bookmark tree", logger.Error(treeErr))
	case tree == nil:
		rs.logger.Info("no bookmark tree found in store")
	case rs.index.Loaded():
		rs.logger.Debug("bookmark tree already loaded, keeping it")
	default:
		rs.index.Replace(tree)
		rs.logger.Info("restored bookmark tree from store",
			logger.Int("count", rs.index.Count()))
	}

	report, err := rs.store.GetLastReport(ctx)
	if err != nil {
		return err
	}
	if report == nil {
		rs.logger.Info("no scan report found in store")
		return treeErr
	}
	if rs.session.Restore(report) {
		rs.logger.Info("restored last scan report",
			logger.String("scan_id", report.ID),
			logger.Int("invalid", len(report.Invalid)))
	}

	return treeErr
}
