// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olegiv/blogify/internal/locale"
)

// regionCatalogKey is the shared-cache key of the serialized catalog.
const regionCatalogKey = "regions:catalog"

// CatalogLoader reads the region catalog from storage.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, defaultRegion string) (locale.Catalog, error)
}

// RegionCache serves the region registry from memory, loading it once from
// the shared cache or the database. It implements locale.Provider.
type RegionCache struct {
	loader        CatalogLoader
	defaultRegion string
	shared        Cacher
	sharedTTL     time.Duration
	logger        *slog.Logger

	mu     sync.RWMutex
	reg    *locale.Registry
	loaded bool

	hits   atomic.Int64
	misses atomic.Int64
	loads  atomic.Int64
}

// RegionCacheOption configures a RegionCache.
type RegionCacheOption func(*RegionCache)

// WithSharedCache keeps the serialized catalog in c so other instances skip
// the database.
func WithSharedCache(c Cacher, ttl time.Duration) RegionCacheOption {
	return func(rc *RegionCache) {
		rc.shared = c
		rc.sharedTTL = ttl
	}
}

// WithRegionLogger sets the logger used to report invalid catalog entries.
func WithRegionLogger(l *slog.Logger) RegionCacheOption {
	return func(rc *RegionCache) {
		rc.logger = l
	}
}

// NewRegionCache creates a region cache.
func NewRegionCache(loader CatalogLoader, defaultRegion string, opts ...RegionCacheOption) *RegionCache {
	rc := &RegionCache{
		loader:        loader,
		defaultRegion: defaultRegion,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Registry implements locale.Provider.
func (c *RegionCache) Registry(ctx context.Context) (*locale.Registry, error) {
	c.mu.RLock()
	if c.loaded {
		reg := c.reg
		c.mu.RUnlock()
		c.hits.Add(1)
		return reg, nil
	}
	c.mu.RUnlock()

	c.misses.Add(1)
	return c.loadAll(ctx)
}

func (c *RegionCache) loadAll(ctx context.Context) (*locale.Registry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.reg, nil
	}

	catalog, err := c.catalog(ctx)
	if err != nil {
		return nil, err
	}

	if err := catalog.Validate(); err != nil {
		for _, e := range unwrapJoined(err) {
			c.logger.Warn("skipping invalid region", "category", "config", "error", e)
		}
	}

	reg, err := locale.NewRegistry(catalog)
	if err != nil {
		return nil, fmt.Errorf("building region registry: %w", err)
	}

	c.reg = reg
	c.loaded = true
	c.loads.Add(1)
	return reg, nil
}

func (c *RegionCache) catalog(ctx context.Context) (locale.Catalog, error) {
	var catalog locale.Catalog
	if c.shared != nil {
		if data, err := c.shared.Get(ctx, regionCatalogKey); err == nil {
			if err := json.Unmarshal(data, &catalog); err == nil && catalog.DefaultRegion == c.defaultRegion {
				return catalog, nil
			}
		}
	}

	catalog, err := c.loader.LoadCatalog(ctx, c.defaultRegion)
	if err != nil {
		return locale.Catalog{}, fmt.Errorf("loading region catalog: %w", err)
	}

	if c.shared != nil {
		if data, err := json.Marshal(catalog); err == nil {
			if err := c.shared.Set(ctx, regionCatalogKey, data, c.sharedTTL); err != nil {
				c.logger.Debug("storing region catalog in shared cache", "error", err)
			}
		}
	}
	return catalog, nil
}

// Invalidate drops the shared copy and then the snapshot; the next call
// reloads. The lock is held throughout so no reader can repopulate the
// snapshot from a shared copy that is about to be removed.
func (c *RegionCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shared != nil {
		if err := c.shared.Delete(ctx, regionCatalogKey); err != nil {
			c.logger.Debug("deleting shared region catalog", "error", err)
		}
	}
	c.loaded = false
	c.reg = nil
}

// Preload loads the registry, e.g. at startup.
func (c *RegionCache) Preload(ctx context.Context) error {
	_, err := c.loadAll(ctx)
	return err
}

// Stats returns hit and miss counters; Sets counts registry builds.
func (c *RegionCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	items := 0
	c.mu.RLock()
	if c.reg != nil {
		items = len(c.reg.Regions())
	}
	c.mu.RUnlock()
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.loads.Load(),
		Items:   items,
		HitRate: hitRate(hits, misses),
	}
}

// ResetStats resets the counters.
func (c *RegionCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.loads.Store(0)
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

var (
	_ locale.Provider = (*RegionCache)(nil)
	_ StatsProvider   = (*RegionCache)(nil)
)
