package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrSnakeDoc/deadmark/internal/checker"
	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/index"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/scan"
	"github.com/MrSnakeDoc/deadmark/internal/settings"
)

var errNoTree = errors.New("bookmarks not loaded yet")

type startResult struct {
	ID    string `json:"id"`
	Total int    `json:"total"`
}

type statusResult struct {
	scan.Status
	FirstScan bool `json:"firstScan"`
}

type duplicatesResult struct {
	Groups     []domain.DuplicateGroup `json:"groups"`
	Bookmarks  int                     `json:"bookmarks"`
	Duplicates int                     `json:"duplicates"`
}

func (s *Server) tools() []tool {
	return []tool{
		{
			def: &mcp.Tool{
				Name:        ToolCheckURL,
				Description: "Check whether a single URL is still reachable and explain the verdict.",
				InputSchema: objectSchema(map[string]any{
					"url": stringProp("Absolute URL to check"),
				}, "url"),
			},
			handle: s.checkURL,
		},
		{
			def: &mcp.Tool{
				Name:        ToolStartScan,
				Description: "Start a background scan of every bookmark. Fails when a scan is already running.",
				InputSchema: objectSchema(nil),
			},
			handle: s.startScan,
		},
		{
			def: &mcp.Tool{
				Name:        ToolScanStatus,
				Description: "Progress of the running scan, or the state of the last one.",
				InputSchema: objectSchema(nil),
			},
			handle: s.scanStatus,
		},
		{
			def: &mcp.Tool{
				Name:        ToolCancelScan,
				Description: "Cancel the running scan and abort its in-flight checks.",
				InputSchema: objectSchema(nil),
			},
			handle: s.cancelScan,
		},
		{
			def: &mcp.Tool{
				Name:        ToolScanReport,
				Description: "Broken links, caveats and empty folders found by a scan. Defaults to the last completed scan.",
				InputSchema: objectSchema(map[string]any{
					"id": stringProp("Scan id from list_reports"),
				}),
			},
			handle: s.scanReport,
		},
		{
			def: &mcp.Tool{
				Name:        ToolListReports,
				Description: "Ids of the stored scan reports, newest first.",
				InputSchema: objectSchema(nil),
			},
			handle: s.listReports,
		},
		{
			def: &mcp.Tool{
				Name:        ToolFindDuplicates,
				Description: "Groups of bookmarks pointing at the same URL.",
				InputSchema: objectSchema(nil),
			},
			handle: s.findDuplicates,
		},
		{
			def: &mcp.Tool{
				Name:        ToolBookmarkProfile,
				Description: "Statistics about the bookmark collection: counts, depth, ages and top domains.",
				InputSchema: objectSchema(nil),
			},
			handle: s.bookmarkProfile,
		},
	}
}

func (s *Server) checkURL(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.URL) == "" {
		return nil, errors.New("url is required")
	}

	timeout, err := s.d.Settings.CurrentTimeout(ctx)
	if err != nil {
		s.d.Logger.Warn("failed to read timeout setting, using default", logger.Error(err))
	}

	v, err := s.d.Checker.Check(ctx, args.URL, settings.Clamp(timeout))
	if err != nil {
		if errors.Is(err, checker.ErrRequestCancelled) {
			return domain.Verdict{IsValid: false, Reason: domain.ReasonRequestCancelled}, nil
		}
		return domain.Verdict{IsValid: false, Reason: err.Error()}, nil
	}
	return v, nil
}

func (s *Server) startScan(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := decodeArgs(raw, &struct{}{}); err != nil {
		return nil, err
	}
	tree, err := s.tree(ctx)
	if err != nil {
		return nil, err
	}

	timeout, err := s.d.Settings.CurrentTimeout(ctx)
	if err != nil {
		s.d.Logger.Warn("failed to read timeout setting, using default", logger.Error(err))
	}

	id, err := s.d.Session.Start(ctx, tree, timeout)
	if err != nil {
		return nil, err
	}
	s.d.Logger.Info("scan started",
		logger.String("scan_id", id),
		logger.String("via", "mcp"))
	return startResult{ID: id, Total: s.d.Session.Status().Total}, nil
}

func (s *Server) scanStatus(ctx context.Context, _ json.RawMessage) (any, error) {
	first, err := s.d.Settings.IsFirstScan(ctx)
	if err != nil {
		s.d.Logger.Warn("failed to read first-scan flag", logger.Error(err))
	}
	return statusResult{Status: s.d.Session.Status(), FirstScan: first}, nil
}

func (s *Server) cancelScan(context.Context, json.RawMessage) (any, error) {
	return map[string]bool{"cancelled": s.d.Session.Cancel()}, nil
}

func (s *Server) scanReport(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(args.ID)
	last := s.d.Session.Report()
	if id == "" || (last != nil && last.ID == id) {
		if last == nil {
			return nil, errors.New("no completed scan yet")
		}
		return last, nil
	}

	if s.d.Store == nil {
		return nil, errors.New("report history is disabled")
	}
	return s.d.Store.GetReport(ctx, id)
}

func (s *Server) listReports(ctx context.Context, _ json.RawMessage) (any, error) {
	if s.d.Store == nil {
		ids := []string{}
		if last := s.d.Session.Report(); last != nil {
			ids = append(ids, last.ID)
		}
		return map[string][]string{"ids": ids}, nil
	}
	ids, err := s.d.Store.ListReportIDs(ctx)
	if err != nil {
		return nil, err
	}
	return map[string][]string{"ids": ids}, nil
}

func (s *Server) findDuplicates(ctx context.Context, _ json.RawMessage) (any, error) {
	tree, err := s.tree(ctx)
	if err != nil {
		return nil, err
	}
	entries := domain.Flatten(tree)
	groups := domain.FindDuplicates(entries)
	if groups == nil {
		groups = []domain.DuplicateGroup{}
	}
	return duplicatesResult{
		Groups:     groups,
		Bookmarks:  len(entries),
		Duplicates: domain.DuplicateBookmarkCount(groups),
	}, nil
}

func (s *Server) bookmarkProfile(ctx context.Context, _ json.RawMessage) (any, error) {
	tree, err := s.tree(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BuildProfile(tree, s.d.Now()), nil
}

func (s *Server) tree(ctx context.Context) (*domain.Node, error) {
	tree, err := s.d.Bookmarks.GetTree(ctx)
	if errors.Is(err, index.ErrNoTree) {
		return nil, errNoTree
	}
	return tree, err
}
