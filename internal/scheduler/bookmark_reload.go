package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/index"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/sources"
	"github.com/MrSnakeDoc/deadmark/internal/store"
)

// BookmarkReloader handles periodic reloading of the bookmark file
type BookmarkReloader struct {
	loader   sources.TreeLoader
	store    store.Trees
	index    *index.MemoryStore
	logger   logger.Logger
	interval time.Duration
	loop     *loop
}

// NewBookmarkReloader creates a new bookmark reloader.
// store may be nil when no persistence is configured.
func NewBookmarkReloader(
	loader sources.TreeLoader,
	store store.Trees,
	idx *index.MemoryStore,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *BookmarkReloader {
	return &BookmarkReloader{
		loader:   loader,
		store:    store,
		index:    idx,
		logger:   log,
		interval: interval,
		loop:     newLoop(interval, manualTrigger),
	}
}

// Start loads the file once and begins the periodic reload process.
// A failed first load is fatal only when no tree was restored before.
func (br *BookmarkReloader) Start(ctx context.Context) error {
	if err := br.Reload(ctx); err != nil {
		if !br.index.Loaded() {
			return fmt.Errorf("initial bookmark reload failed: %w", err)
		}
		br.logger.Warn("initial bookmark reload failed, serving restored tree",
			logger.Error(err))
	}

	br.loop.run(ctx, func(ctx context.Context, manual bool) {
		if manual {
			br.logger.Info("manual bookmark reload triggered")
		}
		if err := br.Reload(ctx); err != nil {
			br.logger.Error("failed to reload bookmarks",
				logger.Error(err),
				logger.Bool("manual", manual))
		}
	})
	return nil
}

// Stop stops the reloader
func (br *BookmarkReloader) Stop() {
	br.loop.stop()
}

// Reload reads the bookmark file and swaps the in-memory tree
func (br *BookmarkReloader) Reload(ctx context.Context) error {
	br.logger.Info("reloading bookmarks")

	tree, err := br.loader.LoadTree()
	if err != nil {
		return fmt.Errorf("failed to load bookmarks: %w", err)
	}

	br.index.Replace(tree)
	br.logger.Info("loaded bookmarks",
		logger.Int("count", br.index.Count()))

	// Persist the snapshot (best effort)
	if br.store != nil {
		if err := br.store.SaveTree(ctx, tree); err != nil {
			br.logger.Warn("failed to persist bookmark tree",
				logger.Error(err))
			// Don't fail - memory store is the primary source
		} else {
			br.logger.Debug("bookmark tree persisted")
		}
	}

	return nil
}
