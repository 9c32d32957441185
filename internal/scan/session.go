package scan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/deadmark/internal/checker"
	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
)

// ErrScanInProgress is returned by Start while another scan is running.
var ErrScanInProgress = errors.New("scan already in progress")

// State is the lifecycle stage of a session.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateDone      State = "done"
	StateCancelled State = "cancelled"
)

// Status is a point-in-time view of the session.
type Status struct {
	ID         string    `json:"id,omitempty"`
	State      State     `json:"state"`
	Checked    int       `json:"checked"`
	Total      int       `json:"total"`
	Cancelled  bool      `json:"cancelled"`
	StartedAt  time.Time `json:"startedAt,omitempty"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// FinishFunc is called once a scan ends, with err set when it was cancelled.
type FinishFunc func(ctx context.Context, summary *Summary, err error)

// SessionOptions configures a Session.
type SessionOptions struct {
	Controller Options
	Active     *checker.ActiveSet
	Logger     logger.Logger
	OnFinish   FinishFunc
}

// Session runs at most one scan at a time in the background.
type Session struct {
	opts   SessionOptions
	logger logger.Logger

	mu         sync.Mutex
	id         string
	state      State
	counters   *Counters
	cancel     context.CancelFunc
	done       chan struct{}
	startedAt  time.Time
	finishedAt time.Time
	last       *Summary
}

// NewSession creates an idle session.
func NewSession(opts SessionOptions) *Session {
	if opts.Active == nil {
		opts.Active = checker.NewActiveSet()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Session{
		opts:     opts,
		logger:   log,
		state:    StateIdle,
		counters: newCounters(0),
	}
}

// Start launches a scan of root with the given per-check timeout and
// returns its id. The scan outlives ctx; use Cancel to stop it.
func (s *Session) Start(ctx context.Context, root *domain.Node, timeout time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		return "", ErrScanInProgress
	}

	id := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	counters := newCounters(domain.CountCheckable(root))
	done := make(chan struct{})

	s.id = id
	s.state = StateRunning
	s.counters = counters
	s.cancel = cancel
	s.done = done
	s.startedAt = time.Now()
	s.finishedAt = time.Time{}

	opts := s.opts.Controller
	if timeout > 0 {
		opts.Timeout = timeout
	}
	opts.Logger = logger.With(s.logger, logger.String("scan_id", id))

	go s.run(runCtx, cancel, NewController(opts), root, id, counters, done)
	return id, nil
}

func (s *Session) run(ctx context.Context, cancel context.CancelFunc, ctrl *Controller, root *domain.Node, id string, counters *Counters, done chan struct{}) {
	defer close(done)
	defer cancel()

	summary, err := ctrl.Scan(ctx, root, counters.IsCancelled, func(p Progress) {
		counters.Set(p.Checked, p.Total)
	})
	summary.ID = id

	s.mu.Lock()
	s.finishedAt = summary.FinishedAt
	if err != nil {
		s.state = StateCancelled
	} else {
		s.state = StateDone
		s.last = summary
	}
	s.mu.Unlock()

	if s.opts.OnFinish != nil {
		s.opts.OnFinish(context.WithoutCancel(ctx), summary, err)
	}
}

// Cancel stops the running scan, if any, and aborts every in-flight check.
// It reports whether a scan was running.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	running := s.state == StateRunning
	cancel := s.cancel
	if running {
		s.counters.Cancel()
	}
	s.mu.Unlock()

	if running && cancel != nil {
		cancel()
	}
	if n := s.opts.Active.AbortAll(); n > 0 {
		s.logger.Info("aborted in-flight checks", logger.Int("count", n))
	}
	return running
}

// IsCancelled reports whether the current or last scan was cancelled.
func (s *Session) IsCancelled() bool {
	s.mu.Lock()
	counters := s.counters
	s.mu.Unlock()
	return counters.IsCancelled()
}

// Wait blocks until the current scan finished or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether a scan is in progress.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRunning
}

// Status returns the state and counters of the current or last scan.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	checked, total, cancelled := s.counters.Snapshot()
	return Status{
		ID:         s.id,
		State:      s.state,
		Checked:    checked,
		Total:      total,
		Cancelled:  cancelled,
		StartedAt:  s.startedAt,
		FinishedAt: s.finishedAt,
	}
}

// Report returns the summary of the last completed scan, or nil.
func (s *Session) Report() *Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Restore installs a previously persisted report when no scan completed yet.
func (s *Session) Restore(summary *Summary) bool {
	if summary == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last != nil || s.state == StateRunning {
		return false
	}
	s.last = summary
	return true
}
