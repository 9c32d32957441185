package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/index"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/scan"
	"github.com/MrSnakeDoc/deadmark/internal/store"
)

type scanStartResponse struct {
	ID    string `json:"id"`
	Total int    `json:"total"`
}

type scanStatusResponse struct {
	scan.Status
	FirstScan bool `json:"firstScan"`
}

type scanCancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type reportListResponse struct {
	IDs []string `json:"ids"`
}

// StartScan launches a background scan of the whole tree
func StartScan(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tree, err := d.Bookmarks.GetTree(ctx)
		if err != nil {
			if errors.Is(err, index.ErrNoTree) {
				writeError(w, http.StatusServiceUnavailable, "bookmarks not loaded yet")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to read bookmarks")
			return
		}

		timeout, err := d.Settings.CurrentTimeout(ctx)
		if err != nil {
			d.Logger.Warn("failed to read timeout setting, using default", logger.Error(err))
		}

		id, err := d.Session.Start(ctx, tree, timeout)
		if err != nil {
			if errors.Is(err, scan.ErrScanInProgress) {
				writeError(w, http.StatusConflict, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to start scan")
			return
		}

		d.Logger.Info("scan started",
			logger.String("scan_id", id),
			logger.Duration("timeout", timeout),
			logger.String("remote_ip", r.RemoteAddr))

		writeJSON(w, http.StatusAccepted, scanStartResponse{ID: id, Total: d.Session.Status().Total})
	}
}

// ScanStatus reports progress of the current or last scan
func ScanStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		first, err := d.Settings.IsFirstScan(r.Context())
		if err != nil {
			d.Logger.Warn("failed to read first-scan flag", logger.Error(err))
		}
		writeJSON(w, http.StatusOK, scanStatusResponse{
			Status:    d.Session.Status(),
			FirstScan: first,
		})
	}
}

// CancelScan stops the running scan and aborts every in-flight check
func CancelScan(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cancelled := d.Session.Cancel()
		d.Logger.Info("scan cancellation requested",
			logger.Bool("was_running", cancelled),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, scanCancelResponse{Cancelled: cancelled})
	}
}

// ScanReport returns the last completed report, or a stored one by ?id=
func ScanReport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.URL.Query().Get("id"))

		if id == "" || (d.Session.Report() != nil && d.Session.Report().ID == id) {
			report := d.Session.Report()
			if report == nil {
				writeError(w, http.StatusNotFound, "no completed scan yet")
				return
			}
			writeJSON(w, http.StatusOK, report)
			return
		}

		if d.Store == nil {
			writeError(w, http.StatusNotFound, "report history is disabled")
			return
		}

		report, err := d.Store.GetReport(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrReportNotFound) {
				writeError(w, http.StatusNotFound, "report not found")
				return
			}
			d.Logger.Error("failed to load report", logger.String("scan_id", id), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load report")
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// ListReports returns the stored report IDs, newest first
func ListReports(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Store == nil {
			ids := []string{}
			if report := d.Session.Report(); report != nil {
				ids = append(ids, report.ID)
			}
			writeJSON(w, http.StatusOK, reportListResponse{IDs: ids})
			return
		}

		ids, err := d.Store.ListReportIDs(r.Context())
		if err != nil {
			d.Logger.Error("failed to list reports", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list reports")
			return
		}
		writeJSON(w, http.StatusOK, reportListResponse{IDs: ids})
	}
}
