package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/checker"
	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/netevents"
)

// fakeChecker answers from a table and records the batch wave of every call.
type fakeChecker struct {
	mu       sync.Mutex
	verdicts map[string]domain.Verdict
	errs     map[string]error
	wave     int
	waves    map[int]int
	calls    int
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{
		verdicts: make(map[string]domain.Verdict),
		errs:     make(map[string]error),
		waves:    make(map[int]int),
	}
}

func (f *fakeChecker) Check(_ context.Context, rawURL string, _ time.Duration) (domain.Verdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.waves[f.wave]++
	if err, ok := f.errs[rawURL]; ok {
		return domain.Verdict{}, err
	}
	if v, ok := f.verdicts[rawURL]; ok {
		return v, nil
	}
	return domain.Verdict{IsValid: true}, nil
}

func (f *fakeChecker) sleep(_ context.Context, d time.Duration) error {
	f.mu.Lock()
	f.wave++
	f.mu.Unlock()
	return nil
}

func folder(id, title string, children ...*domain.Node) *domain.Node {
	if children == nil {
		children = []*domain.Node{}
	}
	return &domain.Node{ID: id, Title: title, Children: children}
}

func bookmark(id, url string) *domain.Node {
	return &domain.Node{ID: id, Title: "bm " + id, URL: url}
}

func TestScanBatchPacing(t *testing.T) {
	var bookmarks []*domain.Node
	for i := 0; i < 65; i++ {
		bookmarks = append(bookmarks, bookmark(fmt.Sprint(100+i), fmt.Sprintf("https://example.com/%d", i)))
	}
	root := folder(domain.RootFolderID, "", folder(domain.BookmarksBarID, "Bookmarks bar", bookmarks...))

	fc := newFakeChecker()
	var pauses []time.Duration
	ctrl := NewController(Options{
		Checker: fc,
		Logger:  logger.New("error", false),
		Sleep: func(ctx context.Context, d time.Duration) error {
			pauses = append(pauses, d)
			return fc.sleep(ctx, d)
		},
	})

	summary, err := ctrl.Scan(context.Background(), root, nil, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if summary.Checked != 65 || summary.Total != 65 {
		t.Errorf("checked/total = %d/%d, want 65/65", summary.Checked, summary.Total)
	}
	if len(pauses) != 2 {
		t.Fatalf("pauses = %v, want 2", pauses)
	}
	for _, p := range pauses {
		if p != time.Second {
			t.Errorf("pause = %v, want 1s", p)
		}
	}
	want := map[int]int{0: 30, 1: 30, 2: 5}
	if fmt.Sprint(fc.waves) != fmt.Sprint(want) {
		t.Errorf("waves = %v, want %v", fc.waves, want)
	}
}

func TestScanBatchPauseIsReal(t *testing.T) {
	var bookmarks []*domain.Node
	for i := 0; i < 5; i++ {
		bookmarks = append(bookmarks, bookmark(fmt.Sprint(i+10), fmt.Sprintf("https://example.com/%d", i)))
	}
	root := folder(domain.RootFolderID, "", folder("5", "Links", bookmarks...))

	ctrl := NewController(Options{
		Checker:    newFakeChecker(),
		BatchSize:  2,
		BatchPause: 20 * time.Millisecond,
	})

	start := time.Now()
	summary, err := ctrl.Scan(context.Background(), root, nil, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("3 waves took %v, want at least 2 pauses", elapsed)
	}
	if summary.Checked != 5 {
		t.Errorf("Checked = %d, want 5", summary.Checked)
	}
}

func TestScanEmptyFolders(t *testing.T) {
	root := folder(domain.RootFolderID, "",
		folder(domain.BookmarksBarID, "Bookmarks bar"),
		folder(domain.OtherBookmarksID, "Other bookmarks",
			folder("10", "Outer", folder("11", "Inner")),
			folder("20", "Has content", folder("21", "Sub", bookmark("22", "https://example.com"))),
			folder("30", ""),
			folder("40", "Internal only", bookmark("41", "chrome://settings")),
		),
		folder(domain.MobileBookmarksID, "Mobile bookmarks"),
	)

	ctrl := NewController(Options{Checker: newFakeChecker()})
	summary, err := ctrl.Scan(context.Background(), root, nil, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	got := map[string][]string{}
	for _, f := range summary.EmptyFolders {
		got[f.ID] = f.Path
	}
	if len(got) != 2 {
		t.Fatalf("empty folders = %+v, want 10 and 11", summary.EmptyFolders)
	}
	if fmt.Sprint(got["11"]) != fmt.Sprint([]string{"Other bookmarks", "Outer", "Inner"}) {
		t.Errorf("path of 11 = %v", got["11"])
	}
	if _, ok := got["10"]; !ok {
		t.Error("folder whose only subfolder is empty should be reported")
	}

	// Post-order: the inner folder is known before the outer one.
	if summary.EmptyFolders[0].ID != "11" {
		t.Errorf("first empty folder = %s, want 11", summary.EmptyFolders[0].ID)
	}
	if summary.Checked != 1 {
		t.Errorf("Checked = %d, want 1 (special protocols are not probed)", summary.Checked)
	}
}

func TestScanEndToEnd(t *testing.T) {
	statuses := map[string]int{
		"https://example.com/a": 200,
		"https://example.com/b": 404,
	}
	hub := netevents.NewHub()
	chk := checker.New(checker.Options{
		Hub: hub,
		Prober: proberFunc(func(_ context.Context, rawURL string) error {
			hub.Publish(netevents.Event{
				Kind:       netevents.Completed,
				RequestID:  rawURL,
				URL:        rawURL,
				StatusCode: statuses[rawURL],
				Type:       netevents.XMLHTTPRequest,
			})
			return nil
		}),
		Logger: logger.New("error", false),
	})

	root := folder(domain.RootFolderID, "",
		folder(domain.BookmarksBarID, "Bookmarks bar",
			bookmark("10", "https://example.com/a"),
			bookmark("11", "https://example.com/b"),
		),
	)

	ctrl := NewController(Options{Checker: chk, Timeout: 15 * time.Second})
	summary, err := ctrl.Scan(context.Background(), root, nil, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(summary.Invalid) != 1 {
		t.Fatalf("Invalid = %+v, want 1 finding", summary.Invalid)
	}
	f := summary.Invalid[0]
	if f.Bookmark.ID != "11" || f.Verdict.Reason != "HTTP Error: 404" {
		t.Errorf("finding = %+v", f)
	}
	if len(summary.EmptyFolders) != 0 {
		t.Errorf("EmptyFolders = %+v, want none", summary.EmptyFolders)
	}
	if summary.Checked != 2 {
		t.Errorf("Checked = %d, want 2", summary.Checked)
	}
	if chk.Active().Len() != 0 || hub.ListenerCount() != 0 {
		t.Error("checks left state behind")
	}
}

type proberFunc func(ctx context.Context, rawURL string) error

func (f proberFunc) Probe(ctx context.Context, rawURL string) error { return f(ctx, rawURL) }

func TestScanErrorIsolationAndCaveats(t *testing.T) {
	fc := newFakeChecker()
	fc.errs["https://example.com/boom"] = errors.New("probe exploded")
	fc.verdicts["https://example.com/auth"] = domain.Verdict{IsValid: true, Reason: domain.ReasonRequiresAuth}

	root := folder(domain.RootFolderID, "",
		folder(domain.BookmarksBarID, "Bookmarks bar",
			bookmark("10", "https://example.com/ok"),
			bookmark("11", "https://example.com/boom"),
			bookmark("12", "https://example.com/auth"),
		),
	)

	var mu sync.Mutex
	var seen []int
	ctrl := NewController(Options{Checker: fc})
	summary, err := ctrl.Scan(context.Background(), root, nil, func(p Progress) {
		mu.Lock()
		seen = append(seen, p.Checked)
		mu.Unlock()
		if p.Total != 3 {
			t.Errorf("progress total = %d, want 3", p.Total)
		}
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(summary.Invalid) != 1 || summary.Invalid[0].Verdict.Reason != "probe exploded" {
		t.Errorf("Invalid = %+v", summary.Invalid)
	}
	if len(summary.Caveats) != 1 || summary.Caveats[0].Bookmark.ID != "12" {
		t.Errorf("Caveats = %+v", summary.Caveats)
	}
	if fmt.Sprint(seen) != "[1 2 3]" {
		t.Errorf("progress = %v, want one call per check", seen)
	}
}

func TestScanCancelPredicate(t *testing.T) {
	var bookmarks []*domain.Node
	for i := 0; i < 65; i++ {
		bookmarks = append(bookmarks, bookmark(fmt.Sprint(100+i), fmt.Sprintf("https://example.com/%d", i)))
	}
	root := folder(domain.RootFolderID, "", folder(domain.BookmarksBarID, "Bookmarks bar", bookmarks...))

	fc := newFakeChecker()
	var mu sync.Mutex
	checked := 0
	ctrl := NewController(Options{Checker: fc, Sleep: fc.sleep})

	summary, err := ctrl.Scan(context.Background(), root,
		func() bool {
			mu.Lock()
			defer mu.Unlock()
			return checked >= 30
		},
		func(p Progress) {
			mu.Lock()
			checked = p.Checked
			mu.Unlock()
		})

	if !errors.Is(err, ErrScanCancelled) {
		t.Fatalf("Scan() error = %v, want ErrScanCancelled", err)
	}
	if summary.Checked != 30 || fc.calls != 30 {
		t.Errorf("checked = %d, calls = %d, want 30", summary.Checked, fc.calls)
	}
}

func TestScanCancelledCheckStopsWalk(t *testing.T) {
	fc := newFakeChecker()
	fc.errs["https://example.com/a"] = checker.ErrRequestCancelled

	root := folder(domain.RootFolderID, "",
		folder("5", "First", bookmark("10", "https://example.com/a")),
		folder("6", "Second", bookmark("11", "https://example.com/b")),
	)

	ctrl := NewController(Options{Checker: fc})
	summary, err := ctrl.Scan(context.Background(), root, nil, nil)
	if !errors.Is(err, ErrScanCancelled) {
		t.Fatalf("Scan() error = %v, want ErrScanCancelled", err)
	}
	if len(summary.Invalid) != 0 {
		t.Errorf("cancellation should not be reported as a broken link: %+v", summary.Invalid)
	}
	if fc.calls != 1 {
		t.Errorf("calls = %d, want 1", fc.calls)
	}
}

func TestScanContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := folder(domain.RootFolderID, "", folder("5", "Links", bookmark("10", "https://example.com")))
	_, err := NewController(Options{Checker: newFakeChecker()}).Scan(ctx, root, nil, nil)
	if !errors.Is(err, ErrScanCancelled) {
		t.Errorf("Scan() error = %v, want ErrScanCancelled", err)
	}
}
