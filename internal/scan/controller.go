package scan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/checker"
	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
)

const (
	DefaultBatchSize  = 30
	DefaultBatchPause = time.Second
	DefaultTimeout    = 15 * time.Second
)

// ErrScanCancelled is returned when a scan stopped before visiting every folder.
var ErrScanCancelled = errors.New("scan cancelled")

// URLChecker checks a single URL. *checker.Checker implements it.
type URLChecker interface {
	Check(ctx context.Context, rawURL string, timeout time.Duration) (domain.Verdict, error)
}

// Finding is a bookmark whose check returned something other than a plain valid.
type Finding struct {
	Bookmark domain.BookmarkEntry `json:"bookmark"`
	Verdict  domain.Verdict       `json:"verdict"`
}

// Summary is the result of one scan.
type Summary struct {
	ID           string               `json:"id,omitempty"`
	Invalid      []Finding            `json:"invalid"`
	Caveats      []Finding            `json:"caveats"`
	EmptyFolders []domain.EmptyFolder `json:"emptyFolders"`
	Checked      int                  `json:"checked"`
	Total        int                  `json:"total"`
	StartedAt    time.Time            `json:"startedAt"`
	FinishedAt   time.Time            `json:"finishedAt,omitempty"`
}

// Progress is reported after every single check.
type Progress struct {
	Checked int
	Total   int
	Finding Finding
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(Progress)

// Options configures a Controller.
type Options struct {
	Checker    URLChecker
	Timeout    time.Duration
	BatchSize  int
	BatchPause time.Duration
	Logger     logger.Logger

	// Sleep waits between batches. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchPause < 0 {
		o.BatchPause = 0
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	return o
}

// Controller walks a bookmark tree and checks every checkable bookmark in
// paced batches.
type Controller struct {
	opts Options
}

// NewController creates a controller. Zero options take their defaults.
func NewController(opts Options) *Controller {
	return &Controller{opts: opts.withDefaults()}
}

// Scan checks every checkable bookmark below root. shouldCancel is polled at
// every folder and before every batch; a true result, or ctx being done,
// stops the walk with ErrScanCancelled and the partial summary.
func (c *Controller) Scan(ctx context.Context, root *domain.Node, shouldCancel func() bool, progress ProgressFunc) (*Summary, error) {
	r := &run{
		opts:         c.opts,
		ctx:          ctx,
		shouldCancel: shouldCancel,
		progress:     progress,
		summary: &Summary{
			Invalid:      []Finding{},
			Caveats:      []Finding{},
			EmptyFolders: []domain.EmptyFolder{},
			Total:        domain.CountCheckable(root),
			StartedAt:    time.Now(),
		},
	}

	c.opts.Logger.Info("scan started",
		logger.Int("total", r.summary.Total),
		logger.Int("batch_size", c.opts.BatchSize),
		logger.Duration("timeout", c.opts.Timeout))

	var err error
	if root != nil {
		_, err = r.walk(root, nil)
	}
	r.summary.FinishedAt = time.Now()

	if err != nil {
		c.opts.Logger.Info("scan cancelled",
			logger.Int("checked", r.summary.Checked),
			logger.Int("total", r.summary.Total))
		return r.summary, err
	}

	c.opts.Logger.Info("scan finished",
		logger.Int("checked", r.summary.Checked),
		logger.Int("invalid", len(r.summary.Invalid)),
		logger.Int("caveats", len(r.summary.Caveats)),
		logger.Int("empty_folders", len(r.summary.EmptyFolders)),
		logger.Duration("elapsed", r.summary.FinishedAt.Sub(r.summary.StartedAt)))
	return r.summary, nil
}

type run struct {
	opts         Options
	ctx          context.Context
	shouldCancel func() bool
	progress     ProgressFunc

	mu      sync.Mutex
	summary *Summary
}

func (r *run) cancelled() bool {
	if r.ctx.Err() != nil {
		return true
	}
	return r.shouldCancel != nil && r.shouldCancel()
}

// walk returns whether the folder holds a bookmark anywhere below it.
// Empty folders are recorded once all subfolders are known.
func (r *run) walk(folder *domain.Node, path []string) (bool, error) {
	if r.cancelled() {
		return false, ErrScanCancelled
	}

	current := path
	if folder.ID != domain.RootFolderID || folder.Title != "" {
		current = domain.FolderPath(path, folder)
	}

	hasBookmarks := false
	subfolderContent := false
	var toCheck []domain.BookmarkEntry

	for _, child := range folder.Children {
		if child.IsBookmark() {
			hasBookmarks = true
			if domain.IsCheckable(child.URL) {
				toCheck = append(toCheck, domain.BookmarkEntry{
					ID:        child.ID,
					Title:     child.Title,
					URL:       child.URL,
					Path:      current,
					DateAdded: child.DateAdded,
				})
			}
			continue
		}

		has, err := r.walk(child, current)
		if err != nil {
			return false, err
		}
		subfolderContent = subfolderContent || has
	}

	if len(toCheck) > 0 {
		if err := r.checkBatches(toCheck); err != nil {
			return false, err
		}
	}

	if !hasBookmarks && !subfolderContent &&
		folder.ID != "" && folder.Title != "" && !domain.IsReservedFolder(folder.ID) {
		r.mu.Lock()
		r.summary.EmptyFolders = append(r.summary.EmptyFolders, domain.EmptyFolder{
			ID:    folder.ID,
			Title: folder.Title,
			Path:  current,
		})
		r.mu.Unlock()
	}

	return hasBookmarks || subfolderContent, nil
}

func (r *run) checkBatches(entries []domain.BookmarkEntry) error {
	size := r.opts.BatchSize
	for i := 0; i < len(entries); i += size {
		if i > 0 {
			if err := r.opts.Sleep(r.ctx, r.opts.BatchPause); err != nil {
				return ErrScanCancelled
			}
		}
		if r.cancelled() {
			return ErrScanCancelled
		}

		end := i + size
		if end > len(entries) {
			end = len(entries)
		}
		if r.checkBatch(entries[i:end]) {
			return ErrScanCancelled
		}
	}
	return nil
}

// checkBatch runs one goroutine per entry and reports whether any check was
// cancelled.
func (r *run) checkBatch(batch []domain.BookmarkEntry) bool {
	var wg sync.WaitGroup
	var cancelledMu sync.Mutex
	cancelled := false

	for _, entry := range batch {
		wg.Add(1)
		go func(entry domain.BookmarkEntry) {
			defer wg.Done()

			v, err := r.opts.Checker.Check(r.ctx, entry.URL, r.opts.Timeout)
			if err != nil {
				if errors.Is(err, checker.ErrRequestCancelled) || errors.Is(err, context.Canceled) {
					cancelledMu.Lock()
					cancelled = true
					cancelledMu.Unlock()
					return
				}
				v = domain.Verdict{IsValid: false, Reason: err.Error()}
			}
			r.record(entry, v)
		}(entry)
	}
	wg.Wait()

	return cancelled
}

func (r *run) record(entry domain.BookmarkEntry, v domain.Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := Finding{Bookmark: entry, Verdict: v}
	switch v.Kind() {
	case domain.Invalid:
		r.summary.Invalid = append(r.summary.Invalid, f)
		r.opts.Logger.Debug("broken bookmark",
			logger.String("url", entry.URL),
			logger.String("reason", v.Reason))
	case domain.ValidWithCaveat:
		r.summary.Caveats = append(r.summary.Caveats, f)
	}
	r.summary.Checked++

	if r.progress != nil {
		r.progress(Progress{Checked: r.summary.Checked, Total: r.summary.Total, Finding: f})
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
