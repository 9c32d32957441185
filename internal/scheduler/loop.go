package scheduler

import (
	"context"
	"sync"
	"time"
)

// loop drives a background job on a ticker and on manual triggers.
type loop struct {
	interval time.Duration
	trigger  <-chan struct{}
	stopCh   chan struct{}
	once     sync.Once
}

// newLoop creates a loop. A non-positive interval disables the ticker and
// a nil trigger is never selected.
func newLoop(interval time.Duration, trigger <-chan struct{}) *loop {
	return &loop{
		interval: interval,
		trigger:  trigger,
		stopCh:   make(chan struct{}),
	}
}

// run calls job in a goroutine until stop is called or ctx is done. manual
// tells whether the call came from the trigger.
func (l *loop) run(ctx context.Context, job func(ctx context.Context, manual bool)) {
	var tick <-chan time.Time
	var ticker *time.Ticker
	if l.interval > 0 {
		ticker = time.NewTicker(l.interval)
		tick = ticker.C
	}

	go func() {
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-tick:
				job(ctx, false)
			case <-l.trigger:
				job(ctx, true)
			case <-l.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// stop ends the loop. It is safe to call more than once.
func (l *loop) stop() {
	l.once.Do(func() { close(l.stopCh) })
}
