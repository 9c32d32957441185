package checker

import (
	"context"
	"testing"
)

func TestHostLimiterDisabled(t *testing.T) {
	l := NewHostLimiter(0, 1)
	if l != nil {
		t.Fatal("NewHostLimiter(0) should return nil")
	}
	if err := l.Wait(context.Background(), "https://example.com"); err != nil {
		t.Errorf("nil limiter Wait() error = %v", err)
	}
	if l.Hosts() != 0 {
		t.Errorf("Hosts() = %d, want 0", l.Hosts())
	}
}

func TestHostLimiterPerHost(t *testing.T) {
	l := NewHostLimiter(1000, 2)
	ctx := context.Background()

	for _, u := range []string{"https://a.example.com/x", "http://A.example.com/y", "https://b.example.com"} {
		if err := l.Wait(ctx, u); err != nil {
			t.Fatalf("Wait(%q) error = %v", u, err)
		}
	}
	if l.Hosts() != 2 {
		t.Errorf("Hosts() = %d, want 2", l.Hosts())
	}
}

func TestHostLimiterCancelled(t *testing.T) {
	l := NewHostLimiter(0.001, 1)
	if err := l.Wait(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx, "https://example.com"); err == nil {
		t.Error("Wait() with cancelled context should fail")
	}
}
