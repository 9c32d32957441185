// internal/httpserver/server.go
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/deadmark/internal/config"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/mw"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/routes"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
)

// DefaultRequestTimeout covers the longest check plus the per-host wait.
const DefaultRequestTimeout = 45 * time.Second

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	logger  logger.Logger
	started time.Time
}

// NewRouter builds the router (middlewares, route registration).
func NewRouter(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()

	// --- Global middlewares (safe defaults)
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)        // X-Request-ID on each request
	r.Use(middleware.Recoverer)        // never crash the process on panic
	r.Use(middleware.Timeout(timeout)) // must outlive the longest check
	r.Use(mw.Log(loggerClient))        // structured access logs
	r.Use(mw.CORS(cfg.AllowedOrigins)) // browser clients (extension, dashboards)

	// Access control and throttling for the API
	routes.RegisterAll(r, d,
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, loggerClient),
		mw.EnforceHost(d.AllowedHosts, loggerClient),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             cfg.RateBurst,
			RefillPerIPPerMin: cfg.RatePerMin,
			MaxEntries:        10000,
			TrustProxy:        cfg.TrustProxy,
			Logger:            loggerClient,
		}),
	)

	return r
}

// New builds the HTTP server.
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           NewRouter(cfg, loggerClient, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      max(cfg.RequestTimeout, DefaultRequestTimeout) + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:    s,
		logger:  loggerClient,
		started: d.StartTime,
	}
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
