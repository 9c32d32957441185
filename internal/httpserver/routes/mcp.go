package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/mcptools"
)

func init() { RegisterAPI(registerMCP) }

func registerMCP(r chi.Router, d deps.Deps) {
	if !d.MCPEnabled {
		return
	}
	r.Handle("/mcp", mcptools.New(d).Handler())
}
