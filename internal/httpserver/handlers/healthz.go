package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/version"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	version.Info
}

// Healthz answers as long as the process serves HTTP. It never touches
// the store or the bookmark file.
func Healthz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
			Info:          d.Build,
		})
	}
}
