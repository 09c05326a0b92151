// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"fmt"
	"net/url"
	"time"
)

// Config selects and configures the cache backend.
type Config struct {
	RedisURL        string // empty selects the memory cache
	Prefix          string
	DefaultTTL      time.Duration
	MaxSize         int
	CleanupInterval time.Duration
}

// Info describes the backend NewCache picked.
type Info struct {
	Backend  string `json:"backend"`
	RedisURL string `json:"redis_url,omitempty"`
	Fallback bool   `json:"fallback"`
}

// NewCache creates a Redis cache when a URL is configured and the server is
// reachable, otherwise a memory cache. A Redis failure is returned together
// with the fallback cache so the caller can log it.
func NewCache(cfg Config) (Cacher, Info, error) {
	if cfg.RedisURL != "" {
		rc, err := NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			return rc, Info{Backend: "redis", RedisURL: MaskRedisURL(cfg.RedisURL)}, nil
		}
		mc := newMemory(cfg)
		return mc, Info{Backend: "memory", RedisURL: MaskRedisURL(cfg.RedisURL), Fallback: true},
			fmt.Errorf("connecting to redis: %w", err)
	}
	return newMemory(cfg), Info{Backend: "memory"}, nil
}

func newMemory(cfg Config) *MemoryCache {
	cleanup := cfg.CleanupInterval
	if cleanup == 0 {
		cleanup = time.Minute
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cleanup,
	})
}

// MaskRedisURL hides the password of a Redis URL for logging.
func MaskRedisURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "redis://***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
