package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Get("/api/bookmarks", handlers.Tree(d))
	r.Delete("/api/bookmarks/{id}", handlers.RemoveBookmark(d))
	r.Get("/api/duplicates", handlers.Duplicates(d))
	r.Get("/api/profile", handlers.Profile(d))
	r.Post("/reload", handlers.Reload(d))
}
