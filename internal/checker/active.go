package checker

import "sync"

// Handle aborts one in-flight check. Abort is idempotent.
type Handle struct {
	once  sync.Once
	abort func()
}

func newHandle(abort func()) *Handle {
	return &Handle{abort: abort}
}

// Abort settles the owning check as cancelled.
func (h *Handle) Abort() {
	h.once.Do(h.abort)
}

// ActiveSet tracks the abort handles of every check in flight.
type ActiveSet struct {
	mu       sync.Mutex
	handles  map[*Handle]struct{}
	aborting int
}

// NewActiveSet creates an empty set.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{handles: make(map[*Handle]struct{})}
}

// Add registers h. While AbortAll is running, h is aborted immediately instead.
func (s *ActiveSet) Add(h *Handle) {
	s.mu.Lock()
	if s.aborting > 0 {
		s.mu.Unlock()
		h.Abort()
		return
	}
	s.handles[h] = struct{}{}
	s.mu.Unlock()
}

// Remove unregisters h. Unknown handles are ignored.
func (s *ActiveSet) Remove(h *Handle) {
	s.mu.Lock()
	delete(s.handles, h)
	s.mu.Unlock()
}

// Len returns the number of registered handles.
func (s *ActiveSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// AbortAll aborts every registered handle and empties the set.
// It returns the number of handles that were registered.
func (s *ActiveSet) AbortAll() int {
	s.mu.Lock()
	s.aborting++
	snapshot := s.handles
	s.handles = make(map[*Handle]struct{})
	s.mu.Unlock()

	for h := range snapshot {
		h.Abort()
	}

	s.mu.Lock()
	s.aborting--
	s.mu.Unlock()

	return len(snapshot)
}
