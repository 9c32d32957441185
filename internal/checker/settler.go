package checker

import (
	"sync"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

type outcome struct {
	verdict domain.Verdict
	err     error
}

// settler resolves a check at most once. Cleanups run in registration order
// before the outcome is published; cleanups registered after settling run
// immediately.
type settler struct {
	mu       sync.Mutex
	done     bool
	cleanups []func()
	result   chan outcome
}

func newSettler() *settler {
	return &settler{result: make(chan outcome, 1)}
}

func (s *settler) onSettle(fns ...func()) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
		return
	}
	s.cleanups = append(s.cleanups, fns...)
	s.mu.Unlock()
}

// settle reports whether this call won.
func (s *settler) settle(v domain.Verdict, err error) bool {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return false
	}
	s.done = true
	cleanups := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()

	for _, fn := range cleanups {
		fn()
	}
	s.result <- outcome{verdict: v, err: err}
	return true
}

func (s *settler) settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
