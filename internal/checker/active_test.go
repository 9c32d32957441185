package checker

import "testing"

func TestHandleAbortOnce(t *testing.T) {
	calls := 0
	h := newHandle(func() { calls++ })
	h.Abort()
	h.Abort()
	if calls != 1 {
		t.Errorf("abort called %d times, want 1", calls)
	}
}

func TestActiveSetAbortAll(t *testing.T) {
	s := NewActiveSet()
	aborted := 0
	for i := 0; i < 3; i++ {
		s.Add(newHandle(func() { aborted++ }))
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}

	if n := s.AbortAll(); n != 3 {
		t.Errorf("AbortAll() = %d, want 3", n)
	}
	if aborted != 3 {
		t.Errorf("aborted = %d, want 3", aborted)
	}
	if s.Len() != 0 {
		t.Errorf("Len() after AbortAll = %d, want 0", s.Len())
	}

	// A second call has nothing to do.
	if n := s.AbortAll(); n != 0 {
		t.Errorf("second AbortAll() = %d, want 0", n)
	}
}

func TestActiveSetAddDuringAbortAll(t *testing.T) {
	s := NewActiveSet()
	lateAborted := false
	late := newHandle(func() { lateAborted = true })

	// The first handle registers another one while it is being aborted.
	s.Add(newHandle(func() { s.Add(late) }))
	s.AbortAll()

	if !lateAborted {
		t.Error("handle added during AbortAll should be aborted")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}

	// Once AbortAll returned, new handles are kept.
	s.Add(newHandle(func() {}))
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestActiveSetRemove(t *testing.T) {
	s := NewActiveSet()
	h := newHandle(func() { t.Error("removed handle should not be aborted") })
	s.Add(h)
	s.Remove(h)
	s.Remove(h)
	s.AbortAll()
}
