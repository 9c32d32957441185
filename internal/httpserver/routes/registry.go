package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
	api bool
}

var registry []entry

// Register a registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAPI registers a registrar behind the shared API guard.
func RegisterAPI(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws, api: true})
}

// Called once from server.New(). apiGuard wraps every RegisterAPI route.
func RegisterAll(r chi.Router, d deps.Deps, apiGuard ...Middleware) {
	r.Group(func(api chi.Router) {
		api.Use(apiGuard...)
		for _, e := range registry {
			if e.api {
				mount(api, e, d)
			}
		}
	})
	for _, e := range registry {
		if !e.api {
			mount(r, e, d)
		}
	}
}

func mount(r chi.Router, e entry, d deps.Deps) {
	if len(e.mws) == 0 {
		e.reg(r, d)
		return
	}
	e.reg(r.With(e.mws...), d) // apply per-route middlewares
}
