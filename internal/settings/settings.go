package settings

import (
	"context"
	"sync"
	"time"
)

// Timeout bounds for a single URL check.
const (
	MinTimeout     = 5 * time.Second
	MaxTimeout     = 30 * time.Second
	DefaultTimeout = 15 * time.Second
)

// Clamp forces d into [MinTimeout, MaxTimeout]. Non-positive values give
// DefaultTimeout.
func Clamp(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	default:
		return d
	}
}

// Memory keeps settings in process memory. It is used when no Redis is
// configured and in tests.
type Memory struct {
	mu      sync.RWMutex
	timeout time.Duration
	scanned bool
}

// NewMemory creates settings with the given (clamped) timeout.
func NewMemory(timeout time.Duration) *Memory {
	return &Memory{timeout: Clamp(timeout)}
}

func (m *Memory) CurrentTimeout(context.Context) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timeout, nil
}

// SetTimeout stores the clamped timeout and returns it.
func (m *Memory) SetTimeout(_ context.Context, timeout time.Duration) (time.Duration, error) {
	clamped := Clamp(timeout)
	m.mu.Lock()
	m.timeout = clamped
	m.mu.Unlock()
	return clamped, nil
}

func (m *Memory) IsFirstScan(context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.scanned, nil
}

func (m *Memory) MarkScanned(context.Context) error {
	m.mu.Lock()
	m.scanned = true
	m.mu.Unlock()
	return nil
}
