package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerScan) }

func registerScan(r chi.Router, d deps.Deps) {
	r.Post("/api/scan", handlers.StartScan(d))
	r.Get("/api/scan", handlers.ScanStatus(d))
	r.Post("/api/scan/cancel", handlers.CancelScan(d))
	r.Get("/api/scan/report", handlers.ScanReport(d))
	r.Get("/api/scan/reports", handlers.ListReports(d))
}
