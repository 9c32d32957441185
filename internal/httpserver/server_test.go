package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/checker"
	"github.com/MrSnakeDoc/deadmark/internal/config"
	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/index"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/netevents"
	"github.com/MrSnakeDoc/deadmark/internal/scan"
	"github.com/MrSnakeDoc/deadmark/internal/scheduler"
	"github.com/MrSnakeDoc/deadmark/internal/settings"
	"github.com/MrSnakeDoc/deadmark/internal/store"
	"github.com/MrSnakeDoc/deadmark/internal/store/sqlite"
	"github.com/MrSnakeDoc/deadmark/internal/version"
)

type proberFunc func(ctx context.Context, rawURL string) error

func (f proberFunc) Probe(ctx context.Context, rawURL string) error { return f(ctx, rawURL) }

// statusProber answers every probe with a completed event carrying the
// status from the table (200 by default). URLs containing "hang" block
// until the probe is cancelled.
func statusProber(hub *netevents.Hub, statuses map[string]int) checker.Prober {
	return proberFunc(func(ctx context.Context, rawURL string) error {
		if strings.Contains(rawURL, "hang") {
			<-ctx.Done()
			return ctx.Err()
		}
		code, ok := statuses[rawURL]
		if !ok {
			code = http.StatusOK
		}
		hub.Publish(netevents.Event{
			Kind:       netevents.Completed,
			RequestID:  rawURL,
			URL:        rawURL,
			StatusCode: code,
			Type:       netevents.XMLHTTPRequest,
			Timestamp:  time.Now(),
		})
		return nil
	})
}

func sampleTree() *domain.Node {
	return &domain.Node{ID: domain.RootFolderID, Children: []*domain.Node{
		{ID: domain.BookmarksBarID, Title: "Bookmarks bar", Children: []*domain.Node{
			{ID: "10", Title: "Go", URL: "https://go.dev/"},
			{ID: "11", Title: "Gone", URL: "https://gone.example/"},
			{ID: "12", Title: "Go again", URL: "https://go.dev/"},
		}},
		{ID: domain.OtherBookmarksID, Title: "Other bookmarks", Children: []*domain.Node{
			{ID: "20", Title: "Nothing here", Children: []*domain.Node{}},
		}},
	}}
}

type testEnv struct {
	router  http.Handler
	deps    deps.Deps
	trigger chan struct{}
}

func newTestEnv(t *testing.T, loaded bool) *testEnv {
	t.Helper()
	return newStoreEnv(t, loaded, nil)
}

// newStoreEnv wires st as settings and report history when it is not nil.
func newStoreEnv(t *testing.T, loaded bool, st store.Store) *testEnv {
	t.Helper()

	log := logger.New("error", false)
	hub := netevents.NewHub()
	chk := checker.New(checker.Options{
		Hub:    hub,
		Prober: statusProber(hub, map[string]int{"https://gone.example/": http.StatusNotFound}),
		Logger: log,
	})

	bookmarks := index.NewMemoryStore()
	if loaded {
		bookmarks.Replace(sampleTree())
	}

	var (
		appSettings domain.Settings = settings.NewMemory(0)
		onFinish    scan.FinishFunc
		kind        string
	)
	if st != nil {
		appSettings = st
		onFinish = scheduler.NewReportRecorder(st, st, log).Record
		kind = "sqlite"
	}

	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	trigger := make(chan struct{}, 1)
	d := deps.Deps{
		Logger:         log,
		StartTime:      now.Add(-time.Hour),
		Build:          version.Info{Version: "test"},
		TimeNow:        func() time.Time { return now },
		BookmarkFormat: "chromium",
		Bookmarks:      bookmarks,
		Settings:       appSettings,
		Store:          st,
		StoreKind:      kind,
		Checker:        chk,
		Session: scan.NewSession(scan.SessionOptions{
			Controller: scan.Options{
				Checker: chk,
				Sleep:   func(context.Context, time.Duration) error { return nil },
			},
			Active:   chk.Active(),
			Logger:   log,
			OnFinish: onFinish,
		}),
		ReloadTrigger: trigger,
	}

	cfg := &config.Config{RequestTimeout: 10 * time.Second, RateBurst: 1000, RatePerMin: 1000}
	return &testEnv{router: NewRouter(cfg, log, d), deps: d, trigger: trigger}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return e.doCtx(t, context.Background(), method, path, body)
}

func (e *testEnv) doCtx(t *testing.T, ctx context.Context, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body)).WithContext(ctx)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestMessagesCheckURL(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		name   string
		url    string
		want   domain.Verdict
		status int
	}{
		{"reachable", "https://go.dev/", domain.Verdict{IsValid: true}, http.StatusOK},
		{"not found", "https://gone.example/", domain.Verdict{IsValid: false, Reason: "HTTP Error: 404"}, http.StatusOK},
		{"special protocol", "chrome://settings", domain.Verdict{IsValid: true, Reason: domain.ReasonSpecialProtocol}, http.StatusOK},
		{"invalid url", "not a url", domain.Verdict{IsValid: false, Reason: domain.ReasonInvalidURL}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/messages", `{"type":"checkUrl","url":"`+tt.url+`"}`)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			got := decode[domain.Verdict](t, rec)
			if got != tt.want {
				t.Errorf("verdict = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMessagesCheckURLCancelled(t *testing.T) {
	env := newTestEnv(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	rec := env.doCtx(t, ctx, http.MethodPost, "/api/messages", `{"type":"checkUrl","url":"https://hang.example/"}`)
	got := decode[domain.Verdict](t, rec)
	want := domain.Verdict{IsValid: false, Reason: domain.ReasonRequestCancelled}
	if got != want {
		t.Errorf("verdict = %+v, want %+v", got, want)
	}
	if n := env.deps.Checker.Active().Len(); n != 0 {
		t.Errorf("%d checks still active", n)
	}
}

func TestMessagesCancelScan(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/api/messages", `{"type":"cancelScan"}`)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestMessagesInvalid(t *testing.T) {
	env := newTestEnv(t, true)

	for _, body := range []string{`{"type":"explode"}`, `not json`, `{"type":"checkUrl","extra":1}`} {
		rec := env.do(t, http.MethodPost, "/api/messages", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestScanLifecycle(t *testing.T) {
	env := newTestEnv(t, true)

	if rec := env.do(t, http.MethodGet, "/api/scan/report", ""); rec.Code != http.StatusNotFound {
		t.Errorf("report before any scan: status = %d, want 404", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/scan", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start scan: status = %d, body %s", rec.Code, rec.Body.String())
	}
	started := decode[struct {
		ID    string `json:"id"`
		Total int    `json:"total"`
	}](t, rec)
	if started.ID == "" || started.Total != 3 {
		t.Errorf("start response = %+v", started)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.deps.Session.Wait(ctx); err != nil {
		t.Fatalf("scan did not finish: %v", err)
	}

	status := decode[struct {
		ID      string `json:"id"`
		State   string `json:"state"`
		Checked int    `json:"checked"`
	}](t, env.do(t, http.MethodGet, "/api/scan", ""))
	if status.ID != started.ID || status.State != "done" || status.Checked != 3 {
		t.Errorf("status = %+v", status)
	}

	rec = env.do(t, http.MethodGet, "/api/scan/report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("report: status = %d", rec.Code)
	}
	report := decode[scan.Summary](t, rec)
	if len(report.Invalid) != 1 || report.Invalid[0].Bookmark.ID != "11" {
		t.Errorf("invalid = %+v", report.Invalid)
	}
	if len(report.EmptyFolders) != 1 || report.EmptyFolders[0].ID != "20" {
		t.Errorf("empty folders = %+v", report.EmptyFolders)
	}

	list := decode[struct {
		IDs []string `json:"ids"`
	}](t, env.do(t, http.MethodGet, "/api/scan/reports", ""))
	if len(list.IDs) != 1 || list.IDs[0] != started.ID {
		t.Errorf("reports = %v", list.IDs)
	}
}

func TestScanConflictAndCancel(t *testing.T) {
	env := newTestEnv(t, false)
	env.deps.Bookmarks.Replace(&domain.Node{ID: domain.RootFolderID, Children: []*domain.Node{
		{ID: domain.BookmarksBarID, Title: "Bookmarks bar", Children: []*domain.Node{
			{ID: "30", Title: "Slow", URL: "https://hang.example/"},
		}},
	}})

	if rec := env.do(t, http.MethodPost, "/api/scan", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("start scan: status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/scan", ""); rec.Code != http.StatusConflict {
		t.Errorf("second start: status = %d, want 409", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/scan/cancel", "")
	got := decode[struct {
		Cancelled bool `json:"cancelled"`
	}](t, rec)
	if !got.Cancelled {
		t.Error("cancel should report a running scan")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.deps.Session.Wait(ctx); err != nil {
		t.Fatalf("scan did not stop: %v", err)
	}
	if st := env.deps.Session.Status(); st.State != scan.StateCancelled {
		t.Errorf("state = %s, want cancelled", st.State)
	}
}

func TestScanWithoutTree(t *testing.T) {
	env := newTestEnv(t, false)
	if rec := env.do(t, http.MethodPost, "/api/scan", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestDuplicatesAndProfile(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/duplicates", "")
	dups := decode[struct {
		Groups     []domain.DuplicateGroup `json:"groups"`
		Bookmarks  int                     `json:"bookmarks"`
		Duplicates int                     `json:"duplicates"`
	}](t, rec)
	if len(dups.Groups) != 1 || dups.Groups[0].URL != "https://go.dev/" || dups.Duplicates != 2 || dups.Bookmarks != 3 {
		t.Errorf("duplicates = %+v", dups)
	}

	rec = env.do(t, http.MethodGet, "/api/profile", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: status = %d", rec.Code)
	}
	profile := decode[domain.Profile](t, rec)
	if profile.TotalBookmarks != 3 || profile.HTTPSCount != 3 {
		t.Errorf("profile = %+v", profile)
	}
}

func TestRemoveBookmark(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		id   string
		want int
	}{
		{domain.BookmarksBarID, http.StatusForbidden},
		{"999", http.StatusNotFound},
		{"11", http.StatusNoContent},
		{"11", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := env.do(t, http.MethodDelete, "/api/bookmarks/"+tt.id, ""); rec.Code != tt.want {
			t.Errorf("DELETE %s: status = %d, want %d", tt.id, rec.Code, tt.want)
		}
	}
	if n := env.deps.Bookmarks.Count(); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t, true)

	type settingsBody struct {
		TimeoutMs int64 `json:"timeoutMs"`
		FirstScan bool  `json:"firstScan"`
	}

	got := decode[settingsBody](t, env.do(t, http.MethodGet, "/api/settings", ""))
	if got.TimeoutMs != 15000 || !got.FirstScan {
		t.Errorf("GET = %+v", got)
	}

	got = decode[settingsBody](t, env.do(t, http.MethodPut, "/api/settings", `{"timeoutMs":60000}`))
	if got.TimeoutMs != 30000 {
		t.Errorf("PUT 60000 = %+v, want clamped to 30000", got)
	}

	got = decode[settingsBody](t, env.do(t, http.MethodPut, "/api/settings", `{"timeoutMs":1000}`))
	if got.TimeoutMs != 5000 {
		t.Errorf("PUT 1000 = %+v, want clamped to 5000", got)
	}

	if rec := env.do(t, http.MethodPut, "/api/settings", `{"timeoutMs":"soon"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid PUT: status = %d, want 400", rec.Code)
	}
}

func TestProbesAndReload(t *testing.T) {
	env := newTestEnv(t, true)

	health := decode[struct {
		Status  string  `json:"status"`
		Uptime  float64 `json:"uptime_seconds"`
		Version string  `json:"version"`
	}](t, env.do(t, http.MethodGet, "/healthz", ""))
	if health.Status != "ok" || health.Uptime != 3600 || health.Version != "test" {
		t.Errorf("healthz = %+v", health)
	}
	if rec := env.do(t, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz: status = %d", rec.Code)
	}

	infra := decode[struct {
		Mode string `json:"mode"`
	}](t, env.do(t, http.MethodGet, "/infra", ""))
	if infra.Mode != "degraded" {
		t.Errorf("infra mode = %q, want degraded without a store", infra.Mode)
	}

	if rec := env.do(t, http.MethodPost, "/reload", ""); rec.Code != http.StatusAccepted {
		t.Errorf("first reload: status = %d, want 202", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/reload", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("pending reload: status = %d, want 429", rec.Code)
	}
	<-env.trigger
}

func TestReadyzWithoutTree(t *testing.T) {
	env := newTestEnv(t, false)
	if rec := env.do(t, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz: status = %d, want 503", rec.Code)
	}
	infra := decode[struct {
		Mode string `json:"mode"`
	}](t, env.do(t, http.MethodGet, "/infra", ""))
	if infra.Mode != "critical" {
		t.Errorf("infra mode = %q, want critical", infra.Mode)
	}
}

func TestReportHistoryWithStore(t *testing.T) {
	st, err := sqlite.New(filepath.Join(t.TempDir(), "deadmark.db"))
	if err != nil {
		t.Fatalf("sqlite.New() error = %v", err)
	}
	defer st.Close()

	env := newStoreEnv(t, true, st)

	started := decode[struct {
		ID string `json:"id"`
	}](t, env.do(t, http.MethodPost, "/api/scan", ""))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.deps.Session.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	list := decode[struct {
		IDs []string `json:"ids"`
	}](t, env.do(t, http.MethodGet, "/api/scan/reports", ""))
	if len(list.IDs) != 1 || list.IDs[0] != started.ID {
		t.Fatalf("reports = %v, want [%s]", list.IDs, started.ID)
	}

	if rec := env.do(t, http.MethodGet, "/api/scan/report?id="+started.ID, ""); rec.Code != http.StatusOK {
		t.Errorf("report by id: status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/scan/report?id=unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown report: status = %d, want 404", rec.Code)
	}

	if first, _ := st.IsFirstScan(ctx); first {
		t.Error("finished scan was not recorded in the store")
	}

	infra := decode[struct {
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK     bool   `json:"ok"`
			Source string `json:"source"`
		} `json:"components"`
	}](t, env.do(t, http.MethodGet, "/infra", ""))
	if infra.Mode != "optimal" || !infra.Components["store"].OK || infra.Components["store"].Source != "sqlite" {
		t.Errorf("infra = %+v", infra)
	}
}

func TestMCPRoute(t *testing.T) {
	env := newTestEnv(t, true)
	if rec := env.do(t, http.MethodPost, "/mcp", `{}`); rec.Code != http.StatusNotFound {
		t.Errorf("disabled /mcp: status = %d, want 404", rec.Code)
	}

	d := env.deps
	d.MCPEnabled = true
	cfg := &config.Config{RequestTimeout: 10 * time.Second, RateBurst: 1000, RatePerMin: 1000}
	router := NewRouter(cfg, d.Logger, d)

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code == http.StatusNotFound {
		t.Error("enabled /mcp is not mounted")
	}
}
