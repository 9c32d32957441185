package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerMessages) }

func registerMessages(r chi.Router, d deps.Deps) {
	r.Post("/api/messages", handlers.Messages(d))
}
