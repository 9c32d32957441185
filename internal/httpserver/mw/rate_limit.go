package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/utils"
)

// RateLimitConfig tunes the per-client token buckets of the API.
type RateLimitConfig struct {
	Burst             int           // requests a client may fire at once
	RefillPerIPPerMin int           // tokens given back per client per minute
	MaxEntries        int           // tracked clients before an early sweep (0 = unbounded)
	SweepInterval     time.Duration // how often idle clients are dropped
	IdleTTL           time.Duration // idle time after which a client is forgotten
	TrustProxy        bool          // resolve IP from proxy headers when true
	Logger            logger.Logger // optional, throttled requests are logged at debug
}

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// decision is the outcome of taking one token.
type decision struct {
	allowed   bool
	remaining int
	retry     time.Duration
}

type buckets struct {
	cfg       RateLimitConfig
	refill    rate.Limit
	mu        sync.Mutex
	byClient  map[string]*bucket
	lastSweep time.Time
}

func newBuckets(cfg RateLimitConfig, now time.Time) *buckets {
	cfg.Burst = max(cfg.Burst, 1)
	cfg.RefillPerIPPerMin = max(cfg.RefillPerIPPerMin, 1)
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	return &buckets{
		cfg:       cfg,
		refill:    rate.Every(time.Minute / time.Duration(cfg.RefillPerIPPerMin)),
		byClient:  make(map[string]*bucket),
		lastSweep: now,
	}
}

// take consumes a token from the bucket of client.
func (b *buckets) take(client string, now time.Time) decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	full := b.cfg.MaxEntries > 0 && len(b.byClient) >= b.cfg.MaxEntries
	if full || now.Sub(b.lastSweep) >= b.cfg.SweepInterval {
		for key, bk := range b.byClient {
			if now.Sub(bk.lastSeen) > b.cfg.IdleTTL {
				delete(b.byClient, key)
			}
		}
		b.lastSweep = now
	}

	bk, ok := b.byClient[client]
	if !ok {
		bk = &bucket{tokens: rate.NewLimiter(b.refill, b.cfg.Burst)}
		b.byClient[client] = bk
	}
	bk.lastSeen = now

	res := bk.tokens.ReserveN(now, 1)
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return decision{retry: wait}
	}
	return decision{allowed: true, remaining: max(int(bk.tokens.TokensAt(now)), 0)}
}

// RateLimit throttles each client IP with a token bucket and answers 429
// with Retry-After once the bucket is empty.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	b := newBuckets(cfg, time.Now())
	limit := strconv.Itoa(b.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, b.cfg.TrustProxy)
			d := b.take(ip, time.Now())

			w.Header().Set("X-RateLimit-Limit", limit)
			if !d.allowed {
				retry := max(int(math.Ceil(d.retry.Seconds())), 1)
				if cfg.Logger != nil {
					cfg.Logger.Debug("request throttled",
						logger.String("remote_ip", ip),
						logger.Int("retry_after", retry))
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
			next.ServeHTTP(w, r)
		})
	}
}
