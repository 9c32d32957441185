package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/settings"
)

type settingsResponse struct {
	TimeoutMs    int64 `json:"timeoutMs"`
	MinTimeoutMs int64 `json:"minTimeoutMs"`
	MaxTimeoutMs int64 `json:"maxTimeoutMs"`
	FirstScan    bool  `json:"firstScan"`
}

type settingsRequest struct {
	TimeoutMs int64 `json:"timeoutMs"`
}

// GetSettings returns the current check timeout and the first-scan flag
func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		timeout, err := d.Settings.CurrentTimeout(ctx)
		if err != nil {
			d.Logger.Warn("failed to read timeout setting", logger.Error(err))
		}
		first, err := d.Settings.IsFirstScan(ctx)
		if err != nil {
			d.Logger.Warn("failed to read first-scan flag", logger.Error(err))
		}

		writeJSON(w, http.StatusOK, newSettingsResponse(settings.Clamp(timeout), first))
	}
}

// PutSettings stores a new check timeout, clamped to the allowed range
func PutSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req settingsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid settings")
			return
		}

		timeout, err := d.Settings.SetTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		if err != nil {
			d.Logger.Error("failed to save timeout setting", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}

		d.Logger.Info("check timeout updated", logger.Duration("timeout", timeout))

		first, _ := d.Settings.IsFirstScan(ctx)
		writeJSON(w, http.StatusOK, newSettingsResponse(timeout, first))
	}
}

func newSettingsResponse(timeout time.Duration, first bool) settingsResponse {
	return settingsResponse{
		TimeoutMs:    timeout.Milliseconds(),
		MinTimeoutMs: settings.MinTimeout.Milliseconds(),
		MaxTimeoutMs: settings.MaxTimeout.Milliseconds(),
		FirstScan:    first,
	}
}
