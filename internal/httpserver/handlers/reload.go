package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
)

type reloadResponse struct {
	Queued bool   `json:"queued"`
	File   string `json:"file"`
	Format string `json:"format"`
}

// Reload queues a re-read of the bookmark file. Only one request can be
// pending at a time; the next one gets 429 until the reloader picks it up.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(d.Logger,
			logger.String("remote_ip", r.RemoteAddr),
			logger.String("file", d.BookmarkFile))

		select {
		case d.ReloadTrigger <- struct{}{}:
			log.Info("bookmark reload queued")
			writeJSON(w, http.StatusAccepted, reloadResponse{
				Queued: true,
				File:   d.BookmarkFile,
				Format: d.BookmarkFormat,
			})
		default:
			log.Warn("bookmark reload already pending")
			writeError(w, http.StatusTooManyRequests, "reload already pending")
		}
	}
}
