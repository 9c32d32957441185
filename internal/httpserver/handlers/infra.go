package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
)

type componentStatus struct {
	OK              bool   `json:"ok"`
	BookmarksLoaded *int   `json:"bookmarks_loaded,omitempty"`
	LastReload      string `json:"last_reload,omitempty"`
	Source          string `json:"source,omitempty"`
	Mode            string `json:"mode,omitempty"`
	Impact          string `json:"impact,omitempty"`
	Error           string `json:"error,omitempty"`
	ActiveChecks    *int   `json:"active_checks,omitempty"`
	Listeners       *int   `json:"listeners,omitempty"`
	LimitedHosts    *int   `json:"limited_hosts,omitempty"`
	State           string `json:"state,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every component
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookmarks := d.Bookmarks.Count()
		lastReload := d.Bookmarks.GetLastReload()
		lastReloadStr := "never"
		if !lastReload.IsZero() {
			lastReloadStr = lastReload.Format("2006-01-02 15:04:05")
		}

		active := d.Checker.Active().Len()
		listeners := d.Checker.Hub().ListenerCount()
		limited := d.HostLimiter.Hosts()

		components := map[string]componentStatus{
			"bookmarks": {
				OK:              d.Bookmarks.Loaded(),
				BookmarksLoaded: &bookmarks,
				LastReload:      lastReloadStr,
				Source:          d.BookmarkFormat,
			},
			"store": checkStore(r.Context(), d),
			"checker": {
				OK:           true,
				ActiveChecks: &active,
				Listeners:    &listeners,
				LimitedHosts: &limited,
			},
			"scan": {
				OK:    true,
				State: string(d.Session.Status().State),
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	// No tree means nothing can be scanned
	if bookmarks, exists := components["bookmarks"]; exists && !bookmarks.OK {
		return "critical"
	}

	// No store = degraded (settings and reports are not persisted)
	if st, exists := components["store"]; exists && !st.OK {
		return "degraded"
	}

	return "optimal"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{
			OK:     false,
			Mode:   "memory",
			Impact: "settings-and-reports-not-persisted",
			Error:  "store not configured",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Source: d.StoreKind,
			Mode:   "degraded",
			Impact: "settings-and-reports-not-persisted",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Source: d.StoreKind,
		Mode:   "optimal",
		Impact: "settings-and-reports-persisted",
		Error:  "none",
	}
}
