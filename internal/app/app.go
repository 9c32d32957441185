package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/deadmark/internal/checker"
	"github.com/MrSnakeDoc/deadmark/internal/config"
	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver"
	"github.com/MrSnakeDoc/deadmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deadmark/internal/index"
	"github.com/MrSnakeDoc/deadmark/internal/logger"
	"github.com/MrSnakeDoc/deadmark/internal/netevents"
	"github.com/MrSnakeDoc/deadmark/internal/redis"
	"github.com/MrSnakeDoc/deadmark/internal/scan"
	"github.com/MrSnakeDoc/deadmark/internal/scheduler"
	"github.com/MrSnakeDoc/deadmark/internal/settings"
	"github.com/MrSnakeDoc/deadmark/internal/sources"
	"github.com/MrSnakeDoc/deadmark/internal/store"
	redisstore "github.com/MrSnakeDoc/deadmark/internal/store/redis"
	"github.com/MrSnakeDoc/deadmark/internal/store/sqlite"
	"github.com/MrSnakeDoc/deadmark/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	db          *sqlite.Store
	session     *scan.Session
	reloader    *scheduler.BookmarkReloader
	scans       *scheduler.ScanScheduler
	gc          *scheduler.GarbageCollector
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Persistence is optional: Redis first, then SQLite, else memory only
	var (
		redisClient *goredis.Client
		db          *sqlite.Store
		st          store.Store
		storeKind   string
	)
	switch {
	case cfg.RedisEnabled():
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully")

		redisClient = client
		st = redisstore.NewStore(client,
			redisstore.WithReportTTL(cfg.ReportTTL),
			redisstore.WithReportHistory(cfg.ReportHistory),
			redisstore.WithDefaultTimeout(cfg.CheckTimeout),
		)
		storeKind = "redis"
	case cfg.DBPath != "":
		var err error
		db, err = sqlite.New(cfg.DBPath,
			sqlite.WithReportTTL(cfg.ReportTTL),
			sqlite.WithReportHistory(cfg.ReportHistory),
			sqlite.WithDefaultTimeout(cfg.CheckTimeout),
		)
		if err != nil {
			loggerClient.Errorf("Failed to open database %s: %v", cfg.DBPath, err)
			os.Exit(1)
		}
		loggerClient.Info("SQLite store opened", logger.String("path", cfg.DBPath))

		st = db
		storeKind = "sqlite"
	default:
		loggerClient.Warn("no store configured, settings and reports are kept in memory")
	}

	var appSettings domain.Settings = settings.NewMemory(cfg.CheckTimeout)
	if st != nil {
		appSettings = st
	}

	// Checker: probes publish on the hub, checks correlate on it
	hub := netevents.NewHub()
	hostLimiter := checker.NewHostLimiter(cfg.HostRPS, cfg.HostBurst)
	chk := checker.New(checker.Options{
		Hub: hub,
		Prober: checker.NewHTTPProber(checker.ProberOptions{
			Hub:          hub,
			MaxRedirects: cfg.MaxRedirects,
			DialTimeout:  cfg.DialTimeout,
			UserAgent:    cfg.UserAgent,
		}),
		Active:  checker.NewActiveSet(),
		Limiter: hostLimiter,
		Logger:  loggerClient,
	})

	recorder := scheduler.NewReportRecorder(st, appSettings, loggerClient)

	session := scan.NewSession(scan.SessionOptions{
		Controller: scan.Options{
			Checker:    chk,
			Timeout:    cfg.CheckTimeout,
			BatchSize:  cfg.BatchSize,
			BatchPause: cfg.BatchPause,
		},
		Active:   chk.Active(),
		Logger:   loggerClient,
		OnFinish: recorder.Record,
	})

	bookmarks := index.NewMemoryStore()

	// Serve the last known tree and report while the file loads
	var gc *scheduler.GarbageCollector
	if st != nil {
		syncer := scheduler.NewStoreSyncer(st, bookmarks, session, loggerClient)
		if err := syncer.Sync(context.Background()); err != nil {
			loggerClient.Warn("failed to sync from store on startup, will load from file",
				logger.String("store", storeKind),
				logger.Error(err))
		}
		gc = scheduler.NewGarbageCollector(st, loggerClient, cfg.GCInterval)
	}

	loader, err := sources.New(cfg.BookmarkFormat, cfg.BookmarkFile)
	if err != nil {
		loggerClient.Errorf("Invalid bookmark source: %v", err)
		os.Exit(1)
	}

	reloadTrigger := make(chan struct{}, 1)
	reloader := scheduler.NewBookmarkReloader(
		loader,
		st,
		bookmarks,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	scans := scheduler.NewScanScheduler(session, bookmarks, appSettings, loggerClient, cfg.ScanInterval)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Build:          version.Get(),
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		BookmarkFile:   cfg.BookmarkFile,
		BookmarkFormat: cfg.BookmarkFormat,
		Store:          st,
		StoreKind:      storeKind,
		Bookmarks:      bookmarks,
		Settings:       appSettings,
		Checker:        chk,
		HostLimiter:    hostLimiter,
		Session:        session,
		ReloadTrigger:  reloadTrigger,
		MCPEnabled:     cfg.MCPEnabled,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		db:          db,
		session:     session,
		reloader:    reloader,
		scans:       scans,
		gc:          gc,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Deadmark %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.Get().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start bookmark reloader (loads the file and starts periodic refresh)
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start bookmark reloader: %w", err)
	}
	a.logger.Info("bookmark reloader started",
		logger.String("format", a.cfg.BookmarkFormat),
		logger.Duration("interval", a.cfg.ReloadInterval))

	if err := a.scans.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scan scheduler: %w", err)
	}
	if a.scans.Enabled() {
		a.logger.Info("scan scheduler started",
			logger.Duration("interval", a.cfg.ScanInterval))
	}

	// Start garbage collector (persistent stores only)
	if a.gc != nil {
		if err := a.gc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start garbage collector: %w", err)
		}
		a.logger.Info("garbage collector started",
			logger.Duration("interval", a.cfg.GCInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	a.scans.Stop()
	if a.gc != nil {
		a.gc.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// Cancelling aborts the in-flight checks of a running scan
	if a.session.Cancel() {
		if err := a.session.Wait(shutdownCtx); err != nil {
			a.logger.Warn("scan did not stop in time", logger.Error(err))
		}
	}

	var errs error
	if err := a.server.Stop(shutdownCtx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("failed to stop server: %w", err))
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to close redis: %w", err))
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			a.logger.Info("✅ Database closed cleanly")
		}
	}

	if errs != nil {
		return errs
	}

	a.logger.Info("✅ Deadmark stopped cleanly")
	return nil
}
