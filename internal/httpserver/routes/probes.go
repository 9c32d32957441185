package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/mw"
)

func init() { Register(registerProbes) }

// healthz stays open for container probes; readyz and infra are limited to
// the allowed networks.
func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		r.Get("/readyz", handlers.Readyz(d))
		r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/infra", handlers.Infra(d))
	})
}
