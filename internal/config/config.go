package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout for the API (must exceed the max check timeout)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Bookmarks
	BookmarkFile   string        // path to the bookmarks file
	BookmarkFormat string        // "chromium" | "homepage-bookmarks" | "homepage-services" | "netscape-html"
	ReloadInterval time.Duration // interval to reload the bookmarks file (default: 1h)

	// Checks
	CheckTimeout time.Duration // default per-check timeout, clamped to 5s-30s
	MaxRedirects int           // redirects followed per check
	DialTimeout  time.Duration // TCP connect timeout
	UserAgent    string        // optional override of the probe user agent
	HostRPS      float64       // per-host probe rate (0 = unlimited)
	HostBurst    int           // per-host probe burst

	// Scans
	BatchSize    int           // concurrent checks per batch
	BatchPause   time.Duration // pause between batches
	ScanInterval time.Duration // periodic scans (0 = disabled)

	// Reports
	ReportTTL     time.Duration // how long reports are kept in Redis
	ReportHistory int           // how many reports stay listed
	GCInterval    time.Duration // interval to prune expired reports from the index
	DBPath        string        // SQLite file used when Redis is not configured (empty = memory only)

	MCPEnabled bool // true => serve the MCP tools on /mcp

	// Redis (optional, empty address = in-memory settings, no report history)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access restrictions
	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	AllowedOrigins []string // optional, CORS origins allowed to call the API
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateBurst      int      // API requests per client before throttling
	RatePerMin     int      // API tokens refilled per client per minute
}

// Load reads the configuration from the environment. When
// DEADMARK_CONFIG_FILE names a TOML file, its keys fill in whatever the
// environment leaves unset.
func Load() *Config {
	src, err := newSource(os.Getenv("DEADMARK_CONFIG_FILE"))
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	cfg := &Config{
		// Server settings
		ListenPort:      src.str("DEADMARK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: src.duration("DEADMARK_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  src.duration("DEADMARK_REQUEST_TIMEOUT", 45*time.Second),

		// Logging
		LogLevel:  src.str("DEADMARK_LOG_LEVEL", "info"),
		PrettyLog: src.bool("DEADMARK_PRETTY_LOG", true),

		// Bookmarks
		BookmarkFile:   src.require("DEADMARK_BOOKMARK_FILE"),
		BookmarkFormat: src.str("DEADMARK_BOOKMARK_FORMAT", "chromium"),
		ReloadInterval: src.duration("DEADMARK_RELOAD_INTERVAL", time.Hour),

		// Checks
		CheckTimeout: src.duration("DEADMARK_CHECK_TIMEOUT", 15*time.Second),
		MaxRedirects: src.int("DEADMARK_MAX_REDIRECTS", 10),
		DialTimeout:  src.duration("DEADMARK_DIAL_TIMEOUT", 10*time.Second),
		UserAgent:    src.str("DEADMARK_USER_AGENT", ""),
		HostRPS:      src.float("DEADMARK_HOST_RPS", 0),
		HostBurst:    src.int("DEADMARK_HOST_BURST", 4),

		// Scans
		BatchSize:    src.int("DEADMARK_BATCH_SIZE", 30),
		BatchPause:   src.duration("DEADMARK_BATCH_PAUSE", time.Second),
		ScanInterval: src.duration("DEADMARK_SCAN_INTERVAL", 0),

		// Reports
		ReportTTL:     src.duration("DEADMARK_REPORT_TTL", 30*24*time.Hour),
		ReportHistory: src.int("DEADMARK_REPORT_HISTORY", 20),
		GCInterval:    src.duration("DEADMARK_GC_INTERVAL", 24*time.Hour),
		DBPath:        src.str("DEADMARK_DB_PATH", ""),

		// MCP
		MCPEnabled: src.bool("DEADMARK_MCP_ENABLED", false),

		// Redis settings
		RedisAddr:             src.str("DEADMARK_REDIS_ADDR", ""),
		RedisUser:             src.str("DEADMARK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: src.bool("DEADMARK_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         src.str("DEADMARK_REDIS_PASSWORD", ""),
		RedisDB:               src.int("DEADMARK_REDIS_DB", 0),
		RedisDT:               src.duration("DEADMARK_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               src.duration("DEADMARK_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               src.duration("DEADMARK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          src.duration("DEADMARK_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      src.duration("DEADMARK_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         src.int("DEADMARK_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   src.duration("DEADMARK_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    src.duration("DEADMARK_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    src.int("DEADMARK_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:   splitAndTrim(src.str("DEADMARK_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   splitAndTrim(src.str("DEADMARK_ALLOWED_CIDRS", "")),
		AllowedOrigins: splitAndTrim(src.str("DEADMARK_ALLOWED_ORIGINS", "")),
		TrustProxy:     src.bool("DEADMARK_TRUST_PROXY", false),
		RateBurst:      src.int("DEADMARK_RATE_BURST", 120),
		RatePerMin:     src.int("DEADMARK_RATE_PER_MIN", 600),
	}

	// Validate Redis password configuration
	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: DEADMARK_REDIS_PASSWORD is required when DEADMARK_REDIS_PASSWORD_REQUIRED=true")
	}

	if cfg.BatchSize < 1 {
		panic(fmt.Sprintf("❌ FATAL: DEADMARK_BATCH_SIZE must be >= 1, got %d", cfg.BatchSize))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
		if keys := src.keys(); len(keys) > 0 {
			log.Printf("[DEBUG] config file keys: %v\n", keys)
		}
	}

	return cfg
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// splitAndTrim splits a comma list, dropping blanks and surrounding quotes.
func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
