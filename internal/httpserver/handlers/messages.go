package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/deadmark/internal/checker"
	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/settings"
)

// Message types accepted on the messaging endpoint.
const (
	MessageCheckURL   = "checkUrl"
	MessageCancelScan = "cancelScan"
)

type messageRequest struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Messages answers the two requests a client can send: checking one URL and
// cancelling the running scan.
func Messages(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg messageRequest
		if err := decodeJSON(w, r, &msg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid message")
			return
		}

		switch msg.Type {
		case MessageCheckURL:
			checkURL(w, r, d, msg.URL)
		case MessageCancelScan:
			running := d.Session.Cancel()
			d.Logger.Info("scan cancellation requested",
				logger.Bool("was_running", running),
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusBadRequest, "unknown message type")
		}
	}
}

func checkURL(w http.ResponseWriter, r *http.Request, d deps.Deps, rawURL string) {
	ctx := r.Context()

	timeout, err := d.Settings.CurrentTimeout(ctx)
	if err != nil {
		d.Logger.Warn("failed to read timeout setting, using default", logger.Error(err))
	}

	v, err := d.Checker.Check(ctx, rawURL, settings.Clamp(timeout))
	if err != nil {
		if errors.Is(err, checker.ErrRequestCancelled) {
			v = domain.Verdict{IsValid: false, Reason: domain.ReasonRequestCancelled}
		} else {
			d.Logger.Error("check failed",
				logger.String("url", rawURL),
				logger.Error(err))
			v = domain.Verdict{IsValid: false, Reason: err.Error()}
		}
	}

	writeJSON(w, http.StatusOK, v)
}
