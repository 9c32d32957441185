package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerSettings) }

func registerSettings(r chi.Router, d deps.Deps) {
	r.Get("/api/settings", handlers.GetSettings(d))
	r.Put("/api/settings", handlers.PutSettings(d))
}
