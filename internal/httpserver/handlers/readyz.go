package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready     bool `json:"ready"`
	Bookmarks int  `json:"bookmarks"`
}

// Readyz is ready once a bookmark tree was loaded
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := d.Bookmarks.Loaded()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{
			Ready:     ready,
			Bookmarks: d.Bookmarks.Count(),
		})
	}
}
