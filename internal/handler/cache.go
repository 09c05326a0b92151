// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/cache"
	"github.com/olegiv/blogify/internal/logging"
)

// RegistryInvalidator drops the cached region registry.
type RegistryInvalidator interface {
	Invalidate(ctx context.Context)
}

// CacheHandler handles cache management routes.
type CacheHandler struct {
	info    cache.Info
	shared  cache.Cacher
	stats   map[string]cache.StatsProvider
	regions RegistryInvalidator
}

// NewCacheHandler creates a new CacheHandler. stats names the caches whose
// counters are reported.
func NewCacheHandler(info cache.Info, shared cache.Cacher, regions RegistryInvalidator, stats map[string]cache.StatsProvider) *CacheHandler {
	return &CacheHandler{info: info, shared: shared, stats: stats, regions: regions}
}

// NamedStats are the counters of one cache.
type NamedStats struct {
	Name string `json:"name"`
	cache.Stats
}

// Routes registers the cache routes.
func (h *CacheHandler) Routes(r chi.Router) {
	r.Get("/cache", h.Stats)
	r.Post("/cache/clear", h.Clear)
}

// Stats handles GET /admin/cache.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.stats))
	for name := range h.stats {
		names = append(names, name)
	}
	sort.Strings(names)

	caches := make([]NamedStats, 0, len(names))
	for _, name := range names {
		caches = append(caches, NamedStats{Name: name, Stats: h.stats[name].Stats()})
	}
	writeJSONSuccess(w, map[string]any{"info": h.info, "caches": caches})
}

// Clear handles POST /admin/cache/clear. It empties the shared cache and
// drops the region registry so both reload from the database.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.shared != nil {
		if err := h.shared.Clear(r.Context()); err != nil {
			logAndInternalError(w, "failed to clear cache", "error", err, "category", logging.CategoryCache)
			return
		}
	}
	if h.regions != nil {
		h.regions.Invalidate(r.Context())
	}
	for _, sp := range h.stats {
		sp.ResetStats()
	}
	slog.Info("cache cleared", "category", logging.CategoryCache)
	writeJSONSuccess(w, nil)
}
