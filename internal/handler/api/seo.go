// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/logging"
	"github.com/olegiv/blogify/internal/middleware"
	"github.com/olegiv/blogify/internal/seo"
)

// SEOConfig configures the crawler documents.
type SEOConfig struct {
	SiteURL     string
	DisallowAll bool
}

// MountSEO registers /robots.txt, /sitemap.xml and /{region}/sitemap.xml.
func (h *Handler) MountSEO(r chi.Router, region func(http.Handler) http.Handler) {
	r.Get("/robots.txt", h.Robots)
	r.With(region).Get("/sitemap.xml", h.Sitemap)
	r.Route("/{"+middleware.RegionParam+":[a-zA-Z]{2}}", func(r chi.Router) {
		r.Use(region)
		r.Get("/sitemap.xml", h.Sitemap)
	})
}

// Sitemap handles GET /sitemap.xml for the resolved region.
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	res := middleware.GetRegion(r)
	if code := chi.URLParam(r, middleware.RegionParam); code != "" && !strings.EqualFold(code, res.Region) {
		http.NotFound(w, r)
		return
	}

	entries, err := h.content.SitemapEntries(r.Context(), res.Region)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("building sitemap", "category", logging.CategoryContent, "region", res.Region, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	builder := seo.NewSitemapBuilder(h.seo.SiteURL)
	builder.AddAll(entries)
	out, err := builder.Build()
	if err != nil {
		h.logger.Error("encoding sitemap", "category", logging.CategoryContent, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(out)
}

// Robots handles GET /robots.txt, listing one sitemap per active region.
func (h *Handler) Robots(w http.ResponseWriter, r *http.Request) {
	cfg := seo.RobotsConfig{
		SiteURL:     h.seo.SiteURL,
		DisallowAll: h.seo.DisallowAll,
	}
	if reg, err := h.registry.Registry(r.Context()); err == nil {
		def := reg.DefaultRegion().Code
		cfg.Sitemaps = append(cfg.Sitemaps, "/sitemap.xml")
		for _, region := range reg.ActiveRegions() {
			if region.Code != def {
				cfg.Sitemaps = append(cfg.Sitemaps, "/"+strings.ToLower(region.Code)+"/sitemap.xml")
			}
		}
	} else {
		h.logger.Warn("robots.txt without region sitemaps", "category", logging.CategoryLocale, "error", err)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(seo.NewRobotsBuilder(cfg).Build()))
}
