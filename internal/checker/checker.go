package checker

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/netevents"
)

// ErrRequestCancelled is returned when a check is aborted before it settled.
var ErrRequestCancelled = errors.New("request cancelled")

// Prober issues the single network request of a check.
// A nil error means a response was received; its details reach the checker
// through the event hub. Failures that carry a fetch exception are returned
// as *FetchError.
type Prober interface {
	Probe(ctx context.Context, rawURL string) error
}

// FetchError is a failure of the probe itself, named like a fetch exception.
type FetchError struct {
	Name    string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return e.Name + ": " + e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Checker.
type Options struct {
	Hub     *netevents.Hub
	Prober  Prober
	Active  *ActiveSet
	Limiter *HostLimiter // optional
	Logger  logger.Logger
}

// Checker decides whether a single URL is alive.
type Checker struct {
	hub     *netevents.Hub
	prober  Prober
	active  *ActiveSet
	limiter *HostLimiter
	logger  logger.Logger
}

// New creates a checker. Hub and Active default to fresh instances.
func New(opts Options) *Checker {
	if opts.Hub == nil {
		opts.Hub = netevents.NewHub()
	}
	if opts.Active == nil {
		opts.Active = NewActiveSet()
	}
	return &Checker{
		hub:     opts.Hub,
		prober:  opts.Prober,
		active:  opts.Active,
		limiter: opts.Limiter,
		logger:  opts.Logger,
	}
}

// Active returns the set of in-flight checks.
func (c *Checker) Active() *ActiveSet { return c.active }

// Hub returns the event hub the checker listens on.
func (c *Checker) Hub() *netevents.Hub { return c.hub }

// Check probes rawURL once and returns the first decisive verdict among the
// network events, the probe result and the timeout. Cancelling ctx, or
// ActiveSet.AbortAll, ends the check with ErrRequestCancelled.
func (c *Checker) Check(ctx context.Context, rawURL string, timeout time.Duration) (domain.Verdict, error) {
	if v, decided := domain.ClassifyURL(rawURL); decided {
		return v, nil
	}
	if ctx.Err() != nil {
		return domain.Verdict{}, ErrRequestCancelled
	}

	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return domain.Verdict{}, ErrRequestCancelled
	}

	s := newSettler()
	corr := netevents.NewCorrelator(rawURL, func(sig domain.Signal) {
		if v, ok := domain.Classify(sig); ok {
			s.settle(v, nil)
		}
	})

	// The probe outlives ctx until the check has settled, so a caller
	// cancellation resolves as cancelled rather than as an aborted request.
	probeCtx, cancelProbe := context.WithCancel(context.WithoutCancel(ctx))
	handle := newHandle(func() { s.settle(domain.Verdict{}, ErrRequestCancelled) })

	corr.Attach(c.hub)
	timer := time.AfterFunc(timeout, func() {
		s.settle(domain.ClassifyTimeout(corr.HasResponse()), nil)
	})
	c.active.Add(handle)
	stopLink := context.AfterFunc(ctx, handle.Abort)

	s.onSettle(
		func() { timer.Stop() },
		corr.Detach,
		cancelProbe,
		func() { c.active.Remove(handle) },
		func() { stopLink() },
	)

	go c.runProbe(probeCtx, rawURL, corr, s)

	out := <-s.result
	c.logResult(rawURL, corr, out)
	return out.verdict, out.err
}

func (c *Checker) runProbe(ctx context.Context, rawURL string, corr *netevents.Correlator, s *settler) {
	err := c.prober.Probe(ctx, rawURL)
	if err == nil {
		corr.MarkResponse()
		return
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		if v, ok := domain.Classify(domain.FetchExceptionSignal{Name: fe.Name, Message: fe.Message}); ok {
			s.settle(v, nil)
		}
	}
	// Anything else waits for a network event or the timer.
}

func (c *Checker) logResult(rawURL string, corr *netevents.Correlator, out outcome) {
	if c.logger == nil {
		return
	}
	log := corr.Log()
	fields := []logger.Field{
		logger.String("url", rawURL),
		logger.String("final_url", log.FinalURL),
		logger.Int("status", log.StatusCode),
		logger.Int("redirects", len(log.Redirects)),
		logger.Int("net_errors", len(log.Errors)),
		logger.Duration("elapsed", log.EndTime.Sub(log.StartTime)),
	}
	if out.err != nil {
		c.logger.Debug("check cancelled", append(fields, logger.Error(out.err))...)
		return
	}
	c.logger.Debug("check finished", append(fields,
		logger.Bool("valid", out.verdict.IsValid),
		logger.String("reason", out.verdict.Reason))...)
}
