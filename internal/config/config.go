// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/blogify/internal/locale"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"BLOGIFY_DB_PATH" envDefault:"./data/blogify.db"`
	ServerHost string `env:"BLOGIFY_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"BLOGIFY_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"BLOGIFY_ENV" envDefault:"development"`
	LogLevel   string `env:"BLOGIFY_LOG_LEVEL" envDefault:"info"`

	RequestTimeout time.Duration `env:"BLOGIFY_REQUEST_TIMEOUT" envDefault:"30s"`

	// Locale
	DefaultRegion    string        `env:"BLOGIFY_DEFAULT_REGION" envDefault:"US"`
	DefaultLanguage  string        `env:"BLOGIFY_DEFAULT_LANGUAGE" envDefault:"en"`
	RegionCookieName string        `env:"BLOGIFY_REGION_COOKIE" envDefault:"region"`
	RegionCookieTTL  time.Duration `env:"BLOGIFY_REGION_COOKIE_TTL" envDefault:"8760h"`
	PathPrefix       string        `env:"BLOGIFY_PATH_PREFIX"` // prefix of public content URLs

	// Crawlers
	SiteURL           string `env:"BLOGIFY_SITE_URL" envDefault:"http://localhost:8080"` // absolute base of sitemap URLs
	RobotsDisallowAll bool   `env:"BLOGIFY_ROBOTS_DISALLOW_ALL" envDefault:"false"`

	// Cache
	RedisURL     string        `env:"BLOGIFY_REDIS_URL"`
	CachePrefix  string        `env:"BLOGIFY_CACHE_PREFIX" envDefault:"blogify:"`
	CacheTTL     int           `env:"BLOGIFY_CACHE_TTL" envDefault:"3600"` // seconds
	CacheMaxSize int           `env:"BLOGIFY_CACHE_MAX_SIZE" envDefault:"10000"`
	AdCacheTTL   time.Duration `env:"BLOGIFY_AD_CACHE_TTL" envDefault:"30s"`

	// GeoIP
	GeoIPDBPath         string `env:"BLOGIFY_GEOIP_DB_PATH"` // path to GeoLite2-Country.mmdb
	EnableIPGeolocation bool   `env:"BLOGIFY_ENABLE_IP_GEOLOCATION" envDefault:"false"`

	// Tracking
	TrackBots         bool          `env:"BLOGIFY_TRACK_BOTS" envDefault:"false"`
	TrackingWorkers   int           `env:"BLOGIFY_TRACKING_WORKERS" envDefault:"4"`
	TrackingQueueSize int           `env:"BLOGIFY_TRACKING_QUEUE_SIZE" envDefault:"1000"`
	TrackingTimeout   time.Duration `env:"BLOGIFY_TRACKING_TIMEOUT" envDefault:"5s"`

	// Rate limiting of the tracking endpoints
	TrackRateLimit float64 `env:"BLOGIFY_TRACK_RATE_LIMIT" envDefault:"5"` // requests per second per IP
	TrackRateBurst int     `env:"BLOGIFY_TRACK_RATE_BURST" envDefault:"20"`

	// Scheduler
	AdExpirySchedule     string `env:"BLOGIFY_AD_EXPIRY_SCHEDULE" envDefault:"@every 5m"`
	GeoIPReloadSchedule  string `env:"BLOGIFY_GEOIP_RELOAD_SCHEDULE" envDefault:"@daily"`
	RegionReloadSchedule string `env:"BLOGIFY_REGION_RELOAD_SCHEDULE" envDefault:"@every 10m"`
	EventPruneSchedule   string `env:"BLOGIFY_EVENT_PRUNE_SCHEDULE" envDefault:"@daily"`
	EventRetentionDays   int    `env:"BLOGIFY_EVENT_RETENTION_DAYS" envDefault:"30"`

	// Seeding
	DoSeed bool `env:"BLOGIFY_DO_SEED" envDefault:"false"` // seed demo content

	// Admin API, mounted at /admin when a token is set
	AdminToken string `env:"BLOGIFY_ADMIN_TOKEN"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled reports whether the IP-derived region step should run.
func (c Config) GeoIPEnabled() bool {
	return c.EnableIPGeolocation && c.GeoIPDBPath != ""
}

// Fallback returns the hard default used when nothing else resolves.
func (c Config) Fallback() locale.Fallback {
	return locale.Fallback{Region: c.DefaultRegion, Language: c.DefaultLanguage}
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DefaultRegion = locale.NormalizeRegionCode(cfg.DefaultRegion)
	cfg.DefaultLanguage = locale.NormalizeLanguageCode(cfg.DefaultLanguage)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.EnableIPGeolocation && cfg.GeoIPDBPath == "" {
		slog.Warn("BLOGIFY_ENABLE_IP_GEOLOCATION is set but BLOGIFY_GEOIP_DB_PATH is empty; " +
			"IP geolocation stays disabled")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if !locale.IsRegionCode(c.DefaultRegion) {
		errs = append(errs, fmt.Errorf("BLOGIFY_DEFAULT_REGION must be a two-letter region code, got %q", c.DefaultRegion))
	}
	if c.DefaultLanguage == "" {
		errs = append(errs, errors.New("BLOGIFY_DEFAULT_LANGUAGE must not be empty"))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("BLOGIFY_SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort))
	}
	if c.TrackingWorkers <= 0 {
		errs = append(errs, fmt.Errorf("BLOGIFY_TRACKING_WORKERS must be positive, got %d", c.TrackingWorkers))
	}
	if c.TrackingQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("BLOGIFY_TRACKING_QUEUE_SIZE must be positive, got %d", c.TrackingQueueSize))
	}
	if c.PathPrefix != "" && (!strings.HasPrefix(c.PathPrefix, "/") || strings.HasSuffix(c.PathPrefix, "/")) {
		errs = append(errs, fmt.Errorf("BLOGIFY_PATH_PREFIX must start and not end with '/', got %q", c.PathPrefix))
	}
	return errors.Join(errs...)
}

// AdminEnabled reports whether the admin API is mounted.
func (c Config) AdminEnabled() bool {
	return c.AdminToken != ""
}
