package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/deadmark/internal/logger"
)

// ConnectOptions configures the client and how long New keeps trying to
// reach the server.
type ConnectOptions struct {
	Addr         string
	User         string
	Password     string
	RedisDB      int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	ConnectTimeout time.Duration // total budget for all attempts
	RetryInterval  time.Duration // first wait, doubled after every failure
	MaxWait        time.Duration // cap on the wait between attempts
	PingTimeout    time.Duration // per attempt
	WarnThreshold  int           // failures logged at warn before switching to error
}

// Validate reports every invalid retry setting at once.
func (o ConnectOptions) Validate() error {
	var errs error
	if o.ConnectTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout))
	}
	if o.RetryInterval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval))
	}
	if o.MaxWait <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait))
	}
	if o.PingTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout))
	}
	if o.WarnThreshold < 0 {
		errs = multierr.Append(errs, fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold))
	}
	return errs
}

// New creates a client and pings it until it answers or ConnectTimeout
// runs out, backing off exponentially between attempts.
func New(opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis options: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.RedisDB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := waitReady(context.Background(), ping, opts, log); err != nil {
		return nil, multierr.Append(err, client.Close())
	}
	return client, nil
}

// waitReady retries ping until it succeeds or the connect budget is spent.
func waitReady(parent context.Context, ping func(context.Context) error, opts ConnectOptions, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(parent, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis",
		logger.String("addr", opts.Addr),
		logger.Duration("timeout", opts.ConnectTimeout))

	start := time.Now()
	wait := opts.RetryInterval
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := ping(pingCtx)
		pingCancel()

		if err == nil {
			fields := []logger.Field{logger.String("addr", opts.Addr)}
			if attempt > 1 {
				log.Warn("connected to redis after retry", append(fields,
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))...)
			} else {
				log.Info("connected to redis", fields...)
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable",
				logger.String("addr", opts.Addr),
				logger.Int("attempts", attempt),
				logger.Error(err))
			if errors.Is(parent.Err(), context.Canceled) {
				return fmt.Errorf("redis connect cancelled after %d attempts: %w", attempt, err)
			}
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				opts.Addr, attempt, opts.ConnectTimeout, err)
		case <-timer.C:
		}

		write := log.Warn
		if attempt > opts.WarnThreshold {
			write = log.Error
		}
		write("redis connection failed, retrying",
			logger.String("addr", opts.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err))

		wait = min(wait*2, opts.MaxWait)
	}
}
