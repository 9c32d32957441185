package deps

import (
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/checker"
	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/index"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/scan"
	"github.com/MrSnakeDoc/deadmark/internal/store"
	"github.com/MrSnakeDoc/deadmark/internal/version"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Build          version.Info         // Version and commit of the running binary
	TimeNow        func() time.Time     // for testing, defaults to time.Now
	AllowedHosts   []string             // Host headers allowed to access the server
	AllowedCIDRS   []string             // IPs allowed to access the API and readyz
	AllowedOrigins []string             // CORS origins allowed to call the API
	TrustProxy     bool                 // true if running behind a trusted reverse proxy (e.g., cloudflared)
	BookmarkFile   string               // Path to the bookmarks file
	BookmarkFormat string               // Format of the bookmarks file
	Store          store.Store          // Persistence backend (nil when running in memory)
	StoreKind      string               // "redis" | "sqlite", empty when running in memory
	Bookmarks      *index.MemoryStore   // In-memory bookmark tree
	Settings       domain.Settings      // Timeout and first-scan flag
	Checker        *checker.Checker     // Single URL checker
	HostLimiter    *checker.HostLimiter // Per-host probe pacing (nil when disabled)
	Session        *scan.Session        // Background scan session
	ReloadTrigger  chan struct{}        // Channel to trigger manual bookmark reload
	MCPEnabled     bool                 // true to serve the MCP tools on /mcp
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
