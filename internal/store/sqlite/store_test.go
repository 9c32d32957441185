package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/scan"
	"github.com/MrSnakeDoc/deadmark/internal/settings"
	"github.com/MrSnakeDoc/deadmark/internal/store"
)

var _ store.Store = (*Store)(nil)

// testClock is advanced by hand.
type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func setupTestStore(t *testing.T, opts ...Option) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s, err := New(filepath.Join(t.TempDir(), "nested", "deadmark.db"), append([]Option{WithClock(clock.now)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func report(id string, finished time.Time) *scan.Summary {
	return &scan.Summary{
		ID:         id,
		Invalid:    []scan.Finding{},
		Caveats:    []scan.Finding{},
		Checked:    3,
		Total:      3,
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
	}
}

func TestSettings(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	if d, err := s.CurrentTimeout(ctx); err != nil || d != settings.DefaultTimeout {
		t.Errorf("CurrentTimeout() = %v, %v", d, err)
	}
	if got, err := s.SetTimeout(ctx, time.Second); err != nil || got != settings.MinTimeout {
		t.Errorf("SetTimeout() = %v, %v", got, err)
	}
	if got, _ := s.SetTimeout(ctx, 20*time.Second); got != 20*time.Second {
		t.Errorf("SetTimeout() = %v, want 20s", got)
	}
	if d, _ := s.CurrentTimeout(ctx); d != 20*time.Second {
		t.Errorf("CurrentTimeout() = %v, want 20s", d)
	}

	if first, err := s.IsFirstScan(ctx); err != nil || !first {
		t.Errorf("IsFirstScan() = %v, %v", first, err)
	}
	if err := s.MarkScanned(ctx); err != nil {
		t.Fatalf("MarkScanned() error = %v", err)
	}
	if first, _ := s.IsFirstScan(ctx); first {
		t.Error("IsFirstScan() = true after MarkScanned()")
	}
}

func TestDefaultTimeout(t *testing.T) {
	tests := []struct {
		name       string
		configured time.Duration
		want       time.Duration
	}{
		{name: "configured", configured: 20 * time.Second, want: 20 * time.Second},
		{name: "below minimum", configured: 2 * time.Second, want: settings.MinTimeout},
		{name: "unset", configured: 0, want: settings.DefaultTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setupTestStore(t, WithDefaultTimeout(tt.configured))
			ctx := context.Background()

			if d, err := s.CurrentTimeout(ctx); err != nil || d != tt.want {
				t.Errorf("CurrentTimeout() = %v, %v, want %v", d, err, tt.want)
			}
			if _, err := s.SetTimeout(ctx, 25*time.Second); err != nil {
				t.Fatalf("SetTimeout() error = %v", err)
			}
			if d, _ := s.CurrentTimeout(ctx); d != 25*time.Second {
				t.Errorf("CurrentTimeout() after SetTimeout() = %v, want 25s", d)
			}
		})
	}
}

func TestReports(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	if last, err := s.GetLastReport(ctx); err != nil || last != nil {
		t.Errorf("GetLastReport() on empty store = %v, %v", last, err)
	}
	if _, err := s.GetReport(ctx, "missing"); !errors.Is(err, store.ErrReportNotFound) {
		t.Errorf("GetReport() error = %v, want ErrReportNotFound", err)
	}
	if err := s.SaveReport(ctx, &scan.Summary{}); err == nil {
		t.Error("SaveReport() without an id should fail")
	}

	base := clock.t
	if err := s.SaveReport(ctx, report("first", base)); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	clock.t = clock.t.Add(time.Minute)
	if err := s.SaveReport(ctx, report("second", base.Add(time.Minute))); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	got, err := s.GetReport(ctx, "first")
	if err != nil || got.ID != "first" || got.Checked != 3 {
		t.Fatalf("GetReport() = %+v, %v", got, err)
	}
	if !got.FinishedAt.Equal(base) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, base)
	}

	last, err := s.GetLastReport(ctx)
	if err != nil || last == nil || last.ID != "second" {
		t.Errorf("GetLastReport() = %+v, %v", last, err)
	}

	ids, err := s.ListReportIDs(ctx)
	if err != nil || len(ids) != 2 || ids[0] != "second" || ids[1] != "first" {
		t.Errorf("ListReportIDs() = %v, %v", ids, err)
	}
}

func TestReportHistory(t *testing.T) {
	s, clock := setupTestStore(t, WithReportHistory(2))
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		clock.t = clock.t.Add(time.Minute)
		if err := s.SaveReport(ctx, report(id, clock.t.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("SaveReport(%s) error = %v", id, err)
		}
	}

	ids, _ := s.ListReportIDs(ctx)
	if len(ids) != 2 || ids[0] != "c" || ids[1] != "b" {
		t.Errorf("ListReportIDs() = %v, want [c b]", ids)
	}
	// Unlisted reports stay readable until they expire.
	if _, err := s.GetReport(ctx, "a"); err != nil {
		t.Errorf("GetReport(a) error = %v", err)
	}
}

func TestReportExpiry(t *testing.T) {
	s, clock := setupTestStore(t, WithReportTTL(time.Hour))
	ctx := context.Background()

	if err := s.SaveReport(ctx, report("old", clock.t)); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if ok, _ := s.ReportExists(ctx, "old"); !ok {
		t.Error("ReportExists() = false right after saving")
	}

	clock.t = clock.t.Add(2 * time.Hour)
	if ok, _ := s.ReportExists(ctx, "old"); ok {
		t.Error("ReportExists() = true after the TTL")
	}
	if _, err := s.GetReport(ctx, "old"); !errors.Is(err, store.ErrReportNotFound) {
		t.Errorf("GetReport() error = %v, want ErrReportNotFound", err)
	}
	if last, _ := s.GetLastReport(ctx); last != nil {
		t.Errorf("GetLastReport() = %+v, want nil", last)
	}

	// Still indexed until the collector forgets it.
	if ids, _ := s.ListReportIDs(ctx); len(ids) != 1 {
		t.Errorf("ListReportIDs() = %v", ids)
	}
	if err := s.ForgetReports(ctx, "old"); err != nil {
		t.Fatalf("ForgetReports() error = %v", err)
	}
	if ids, _ := s.ListReportIDs(ctx); len(ids) != 0 {
		t.Errorf("ListReportIDs() after forget = %v", ids)
	}
	if err := s.ForgetReports(ctx); err != nil {
		t.Errorf("ForgetReports() with no ids error = %v", err)
	}
}

func TestTree(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	if tree, err := s.GetTree(ctx); err != nil || tree != nil {
		t.Errorf("GetTree() on empty store = %v, %v", tree, err)
	}

	root, bar, _ := domain.NewTree()
	bar.Children = append(bar.Children, &domain.Node{ID: "10", Title: "Go", URL: "https://go.dev"})
	if err := s.SaveTree(ctx, root); err != nil {
		t.Fatalf("SaveTree() error = %v", err)
	}

	got, err := s.GetTree(ctx)
	if err != nil {
		t.Fatalf("GetTree() error = %v", err)
	}
	if got.ID != root.ID || len(got.Children) != len(root.Children) {
		t.Fatalf("GetTree() = %+v", got)
	}
	if url := got.Children[0].Children[0].URL; url != "https://go.dev" {
		t.Errorf("bookmark url = %q", url)
	}

	// Saving again replaces the tree.
	bar.Children = nil
	if err := s.SaveTree(ctx, root); err != nil {
		t.Fatalf("SaveTree() error = %v", err)
	}
	got, _ = s.GetTree(ctx)
	if len(got.Children[0].Children) != 0 {
		t.Errorf("tree was not replaced: %+v", got.Children[0])
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deadmark.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if _, err := s.SetTimeout(ctx, 25*time.Second); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatalf("New() on an existing file error = %v", err)
	}
	defer s.Close()
	if d, _ := s.CurrentTimeout(ctx); d != 25*time.Second {
		t.Errorf("CurrentTimeout() after reopen = %v, want 25s", d)
	}
}
