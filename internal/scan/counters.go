package scan

import "sync"

// Counters tracks the progress of one scan.
type Counters struct {
	mu        sync.Mutex
	checked   int
	total     int
	cancelled bool
}

func newCounters(total int) *Counters {
	return &Counters{total: total}
}

// Set records the latest progress.
func (c *Counters) Set(checked, total int) {
	c.mu.Lock()
	c.checked = checked
	c.total = total
	c.mu.Unlock()
}

// Cancel raises the cancellation flag.
func (c *Counters) Cancel() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
}

// IsCancelled reports whether Cancel was called.
func (c *Counters) IsCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// Snapshot returns the current values.
func (c *Counters) Snapshot() (checked, total int, cancelled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checked, c.total, c.cancelled
}
