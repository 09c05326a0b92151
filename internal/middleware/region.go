// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for region resolution, legacy
// URL redirects and rate limiting.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/metrics"
	"github.com/olegiv/blogify/internal/util"
)

// RegionParam is the chi URL parameter carrying an explicit region.
const RegionParam = "region"

// RegionQueryParam is the query parameter carrying an explicit region.
const RegionQueryParam = "region"

// PreferenceStore reads and writes the region preference cookie.
type PreferenceStore struct {
	Name string
	TTL  time.Duration
}

// DefaultPreferenceStore keeps the preference in the "region" cookie for a year.
func DefaultPreferenceStore() PreferenceStore {
	return PreferenceStore{Name: "region", TTL: 365 * 24 * time.Hour}
}

// Get returns the stored region code or "".
func (p PreferenceStore) Get(r *http.Request) string {
	c, err := r.Cookie(p.Name)
	if err != nil {
		return ""
	}
	return locale.NormalizeRegionCode(c.Value)
}

// Set stores the region code.
func (p PreferenceStore) Set(w http.ResponseWriter, r *http.Request, code string) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    locale.NormalizeRegionCode(code),
		Path:     "/",
		MaxAge:   int(p.TTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// Region creates middleware that resolves the request's region and language
// once and stamps them on the request context.
// Priority order: {region} path parameter, ?region=, preference cookie,
// Accept-Language, GeoIP, default.
func Region(resolver *locale.Resolver, prefs PreferenceStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := resolver.Resolve(r.Context(), locale.Signals{
				PathRegion:     locale.NormalizeRegionCode(chi.URLParam(r, RegionParam)),
				QueryRegion:    locale.NormalizeRegionCode(r.URL.Query().Get(RegionQueryParam)),
				CookieRegion:   prefs.Get(r),
				AcceptLanguage: r.Header.Get("Accept-Language"),
				ClientIP:       util.ClientIP(r),
			})
			metrics.RegionResolutions.WithLabelValues(string(res.Source)).Inc()

			w.Header().Set("Content-Language", res.Language)
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(locale.WithResolved(r.Context(), res)))
		})
	}
}

// GetRegion returns the resolved pair stamped by Region. The zero value is
// returned for requests that did not pass through it.
func GetRegion(r *http.Request) locale.Resolved {
	res, _ := locale.FromContext(r.Context())
	return res
}
