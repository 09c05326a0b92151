// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/blogify/internal/ads"
	"github.com/olegiv/blogify/internal/cache"
	"github.com/olegiv/blogify/internal/config"
	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/geoip"
	"github.com/olegiv/blogify/internal/handler"
	"github.com/olegiv/blogify/internal/handler/api"
	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/logging"
	"github.com/olegiv/blogify/internal/metrics"
	"github.com/olegiv/blogify/internal/middleware"
	"github.com/olegiv/blogify/internal/scheduler"
	"github.com/olegiv/blogify/internal/service"
	"github.com/olegiv/blogify/internal/store"
	"github.com/olegiv/blogify/internal/tracking"
	"github.com/olegiv/blogify/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "blogify - multilingual, region-aware content backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGIFY_DB_PATH           SQLite database path (default: ./data/blogify.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGIFY_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGIFY_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGIFY_DEFAULT_REGION    Region used when nothing else matches (default: US)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGIFY_REDIS_URL         Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGIFY_GEOIP_DB_PATH     MaxMind country database (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGIFY_ADMIN_TOKEN       Bearer token enabling the /admin API (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	s := store.NewStore(db)

	seeded, err := s.Seed(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("seeding regions: %w", err)
	}
	if seeded {
		slog.Info("region catalog seeded", "regions", len(store.SeedRegions))
	}

	shared, cacheInfo, err := cache.NewCache(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		slog.Warn("cache initialized", "backend", cacheInfo.Backend, "note", "Redis unavailable, using fallback", "error", err)
	} else {
		slog.Info("cache initialized", "backend", cacheInfo.Backend)
	}
	defer func() { _ = shared.Close() }()

	regions := cache.NewRegionCache(s, cfg.DefaultRegion,
		cache.WithSharedCache(shared, time.Duration(cfg.CacheTTL)*time.Second),
		cache.WithRegionLogger(logger))
	if err := regions.Preload(ctx); err != nil {
		slog.Warn("failed to preload region registry", "error", err)
	}

	var resolverOpts []locale.Option
	var trackerOpts []tracking.Option
	var geo *geoip.Lookup
	if cfg.GeoIPEnabled() {
		geo = geoip.NewLookup()
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip disabled", "path", cfg.GeoIPDBPath, "error", err)
			geo = nil
		} else {
			defer func() { _ = geo.Close() }()
			resolverOpts = append(resolverOpts, locale.WithGeoLocator(geo))
			trackerOpts = append(trackerOpts, tracking.WithCountryLocator(geo))
		}
	}
	resolverOpts = append(resolverOpts, locale.WithLogger(logger))
	resolver := locale.NewResolver(regions, cfg.Fallback(), resolverOpts...)

	dispatcher := tracking.NewDispatcher(logger, tracking.Config{
		Workers:   cfg.TrackingWorkers,
		QueueSize: cfg.TrackingQueueSize,
		Timeout:   cfg.TrackingTimeout,
	})
	dispatcher.Start()
	defer dispatcher.Stop()
	trackerOpts = append(trackerOpts, tracking.WithBots(cfg.TrackBots))
	tracker := tracking.NewTracker(dispatcher, s, logger, trackerOpts...)

	paths := content.Paths{DefaultRegion: cfg.DefaultRegion, Prefix: cfg.PathPrefix}
	contentSvc := service.NewContent(s, regions, paths, logger)
	adsSvc := service.NewAds(s, regions, shared, cfg.AdCacheTTL, ads.NewRandomPicker(), tracker, logger)
	eventSvc := service.NewEventService(db)
	contactSvc := service.NewContact(s, logger)

	if cfg.DoSeed {
		ok, err := service.SeedDemo(ctx, contentSvc, adsSvc)
		if err != nil {
			return fmt.Errorf("seeding demo content: %w", err)
		}
		if ok {
			slog.Info("demo content seeded")
		}
	}

	sched := scheduler.New(logger)
	maint := scheduler.Maintenance{
		Ads:                  adsSvc,
		AdExpirySchedule:     cfg.AdExpirySchedule,
		Regions:              regions,
		RegionReloadSchedule: cfg.RegionReloadSchedule,
		Events:               eventSvc,
		EventRetention:       time.Duration(cfg.EventRetentionDays) * 24 * time.Hour,
		PruneSchedule:        cfg.EventPruneSchedule,
	}
	if geo != nil {
		maint.GeoIP = geo
		maint.GeoIPReloadSchedule = cfg.GeoIPReloadSchedule
	}
	if err := sched.RegisterMaintenance(maint); err != nil {
		return fmt.Errorf("registering scheduled jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	prefs := middleware.PreferenceStore{Name: cfg.RegionCookieName, TTL: cfg.RegionCookieTTL}
	regionMW := middleware.Region(resolver, prefs)

	apiHandler := api.NewHandler(api.Deps{
		Content:  contentSvc,
		Ads:      adsSvc,
		Search:   service.NewSearchService(s),
		Contact:  contactSvc,
		Tracker:  tracker,
		Store:    s,
		Registry: regions,
		Prefs:    prefs,
		Limiter:  middleware.NewGlobalRateLimiter(cfg.TrackRateLimit, cfg.TrackRateBurst).Middleware(),
		Logger:   logger,
		Version:  info,
		SEO:      api.SEOConfig{SiteURL: cfg.SiteURL, DisallowAll: cfg.RobotsDisallowAll},
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(chimw.StripSlashes)
	r.Use(metrics.Middleware)

	r.Get("/health", apiHandler.Health)
	r.Handle("/metrics", metrics.Handler())

	apiHandler.Mount(r, "/api", regionMW)
	apiHandler.MountSEO(r, regionMW)

	// Old un-prefixed content URLs
	r.Group(func(r chi.Router) {
		r.Use(regionMW)
		r.Use(middleware.LegacyRedirects(contentSvc.Locator(), paths, logger))
		r.Get("/{segment:article|category|author}/{slug}", http.NotFound)
	})

	if cfg.AdminEnabled() {
		stats := map[string]cache.StatsProvider{"regions": regions}
		if sp, ok := shared.(cache.StatsProvider); ok {
			stats[cacheInfo.Backend] = sp
		}
		admin := handler.Admin{
			Content:   handler.NewContentHandler(contentSvc, eventSvc),
			Ads:       handler.NewAdsHandler(adsSvc),
			Regions:   handler.NewRegionsHandler(s, regions),
			Scheduler: handler.NewSchedulerHandler(sched),
			Events:    handler.NewEventsHandler(eventSvc),
			Cache:     handler.NewCacheHandler(cacheInfo, shared, regions, stats),
			Contact:   handler.NewContactHandler(contactSvc),
			Visitors:  handler.NewVisitorsHandler(s),
		}
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminToken(cfg.AdminToken))
			admin.Routes(r)
		})
		slog.Info("admin API enabled", "path", "/admin")
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
