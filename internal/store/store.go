// Package store defines the persistence contract shared by the Redis and
// SQLite backends.
package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/scan"
)

// ErrReportNotFound is returned when a report ID is unknown or expired
var ErrReportNotFound = errors.New("report not found")

// Reports is the report history.
type Reports interface {
	SaveReport(ctx context.Context, summary *scan.Summary) error
	// GetReport wraps ErrReportNotFound when id is unknown.
	GetReport(ctx context.Context, id string) (*scan.Summary, error)
	// GetLastReport returns nil, nil when no report was saved.
	GetLastReport(ctx context.Context) (*scan.Summary, error)
	// ListReportIDs lists the indexed reports, newest first.
	ListReportIDs(ctx context.Context) ([]string, error)
	ReportExists(ctx context.Context, id string) (bool, error)
	ForgetReports(ctx context.Context, ids ...string) error
}

// Trees keeps the last loaded bookmark tree.
type Trees interface {
	SaveTree(ctx context.Context, root *domain.Node) error
	// GetTree returns nil, nil when no tree was saved.
	GetTree(ctx context.Context) (*domain.Node, error)
}

// Store is a complete persistence backend.
type Store interface {
	domain.Settings
	Reports
	Trees
	Ping(ctx context.Context) error
}
