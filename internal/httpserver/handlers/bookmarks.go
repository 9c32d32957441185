package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/index"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
)

type duplicatesResponse struct {
	Groups     []domain.DuplicateGroup `json:"groups"`
	Bookmarks  int                     `json:"bookmarks"`
	Duplicates int                     `json:"duplicates"`
}

// Tree returns the whole bookmark tree
func Tree(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree, ok := loadTree(w, r, d)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, tree)
	}
}

// Duplicates lists bookmarks sharing the same URL, largest groups first
func Duplicates(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree, ok := loadTree(w, r, d)
		if !ok {
			return
		}

		entries := domain.Flatten(tree)
		groups := domain.FindDuplicates(entries)
		if groups == nil {
			groups = []domain.DuplicateGroup{}
		}

		writeJSON(w, http.StatusOK, duplicatesResponse{
			Groups:     groups,
			Bookmarks:  len(entries),
			Duplicates: domain.DuplicateBookmarkCount(groups),
		})
	}
}

// Profile returns aggregate statistics about the collection
func Profile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree, ok := loadTree(w, r, d)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, domain.BuildProfile(tree, d.Now()))
	}
}

// RemoveBookmark deletes a bookmark or folder by id
func RemoveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := d.Bookmarks.Remove(r.Context(), id); err != nil {
			switch {
			case errors.Is(err, index.ErrReserved):
				writeError(w, http.StatusForbidden, err.Error())
			case errors.Is(err, index.ErrNotFound):
				writeError(w, http.StatusNotFound, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "failed to remove bookmark")
			}
			return
		}

		d.Logger.Info("bookmark removed",
			logger.String("id", id),
			logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusNoContent)
	}
}

func loadTree(w http.ResponseWriter, r *http.Request, d deps.Deps) (*domain.Node, bool) {
	tree, err := d.Bookmarks.GetTree(r.Context())
	if err != nil {
		if errors.Is(err, index.ErrNoTree) {
			writeError(w, http.StatusServiceUnavailable, "bookmarks not loaded yet")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "failed to read bookmarks")
		return nil, false
	}
	return tree, true
}
