// Package mcptools exposes the link checker and the scan session as MCP
// tools, so assistants can check links the same way the HTTP API does.
package mcptools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
)

// Tool names.
const (
	ToolCheckURL        = "check_url"
	ToolStartScan       = "start_scan"
	ToolScanStatus      = "scan_status"
	ToolCancelScan      = "cancel_scan"
	ToolScanReport      = "scan_report"
	ToolListReports     = "list_reports"
	ToolFindDuplicates  = "find_duplicates"
	ToolBookmarkProfile = "bookmark_profile"
)

// handlerFunc answers a tool call with a value rendered as JSON text.
type handlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

type tool struct {
	def    *mcp.Tool
	handle handlerFunc
}

// Server holds the MCP server and the dependencies its tools read.
type Server struct {
	d   deps.Deps
	srv *mcp.Server
}

// New builds the MCP server and registers every tool.
func New(d deps.Deps) *Server {
	version := d.Build.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		d: d,
		srv: mcp.NewServer(
			&mcp.Implementation{Name: "deadmark", Version: version},
			nil,
		),
	}
	for _, t := range s.tools() {
		s.srv.AddTool(t.def, s.wrap(t.def.Name, t.handle))
	}
	return s
}

// MCP returns the underlying server, e.g. to run it on another transport.
func (s *Server) MCP() *mcp.Server {
	return s.srv
}

// Handler serves the tools over the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return s.srv },
		nil,
	)
}

func (s *Server) wrap(name string, h handlerFunc) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		v, err := h(ctx, req.Params.Arguments)
		if err != nil {
			s.d.Logger.Debug("mcp tool failed",
				logger.String("tool", name),
				logger.Error(err))
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, nil
		}

		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s result: %w", name, err)
		}

		s.d.Logger.Debug("mcp tool called",
			logger.String("tool", name),
			logger.Duration("duration", time.Since(start)))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	}
}

// decodeArgs fills v from the call arguments. Missing arguments leave v
// untouched.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 || string(raw) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid arguments: " + err.Error())
	}
	return nil
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{"type": "object"}
	if len(props) > 0 {
		schema["properties"] = props
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}
