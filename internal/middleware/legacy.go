// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/metrics"
)

// LegacyRedirects creates middleware that answers old un-prefixed content
// URLs (/article/{slug}, /category/{slug}, /author/{slug}) with a 301 to the
// entity's current URL in the request's region. Anything it cannot resolve
// passes through.
func LegacyRedirects(locator *content.Locator, paths content.Paths, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			kind, slug, ok := parseLegacyPath(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			e, err := locator.LocateAnyLanguage(r.Context(), kind, slug)
			if err != nil {
				if !errors.Is(err, content.ErrNotFound) {
					logger.Error("legacy redirect lookup failed", "kind", kind, "slug", slug, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			region := paths.DefaultRegion
			if res, ok := locale.FromContext(r.Context()); ok && res.Region != "" {
				region = res.Region
			}

			target, err := paths.EntityPath(e, region, kind.Segment(), e.DefaultLanguage)
			if err != nil {
				logger.Error("legacy redirect target unavailable", "kind", kind, "id", e.ID, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if target == r.URL.Path {
				next.ServeHTTP(w, r)
				return
			}
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}

			metrics.LegacyRedirects.WithLabelValues(string(kind)).Inc()
			http.Redirect(w, r, target, http.StatusMovedPermanently)
		})
	}
}

// parseLegacyPath matches /{segment}/{slug} for a known content kind.
func parseLegacyPath(path string) (content.Kind, string, bool) {
	segment, slug, ok := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !ok || slug == "" || strings.Contains(slug, "/") {
		return "", "", false
	}
	for _, k := range content.Kinds {
		if k.Segment() == segment {
			return k, slug, true
		}
	}
	return "", "", false
}
