// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package locale

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Source names the signal that decided a resolution.
type Source string

// Resolution sources in priority order.
const (
	SourcePath           Source = "path"
	SourceQuery          Source = "query"
	SourceCookie         Source = "cookie"
	SourceAcceptLanguage Source = "accept-language"
	SourceGeoIP          Source = "geoip"
	SourceDefault        Source = "default"
)

// Signals are the raw request inputs consulted by the resolver.
type Signals struct {
	PathRegion     string
	QueryRegion    string
	CookieRegion   string
	AcceptLanguage string
	ClientIP       string
}

// Resolved is the (region, language) pair computed once per request.
type Resolved struct {
	Region   string `json:"region"`
	Language string `json:"language"`
	Source   Source `json:"source"`
}

// GeoLocator guesses a region code from a client IP.
type GeoLocator interface {
	LookupRegion(ip string) (string, bool)
}

// Fallback is the hard default used when the registry itself is unavailable.
type Fallback struct {
	Region   string
	Language string
}

// Resolver picks the region and language for a request.
type Resolver struct {
	registry Provider
	geo      GeoLocator
	fallback Fallback
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGeoLocator enables the IP-derived region step.
func WithGeoLocator(g GeoLocator) Option {
	return func(r *Resolver) { r.geo = g }
}

// WithLogger sets the logger used for degraded resolutions.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver backed by the given registry provider.
func NewResolver(p Provider, fallback Fallback, opts ...Option) *Resolver {
	r := &Resolver{
		registry: p,
		fallback: fallback,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the region and language for the given signals. It never
// fails: invalid signals are skipped and a registry failure yields the hard
// default.
//
// Priority: path, query, cookie, Accept-Language, GeoIP, default.
func (r *Resolver) Resolve(ctx context.Context, s Signals) Resolved {
	reg, err := r.registry.Registry(ctx)
	if err != nil || reg == nil {
		r.logger.Debug("region registry unavailable, using hard default", "error", err)
		return Resolved{Region: r.fallback.Region, Language: r.fallback.Language, Source: SourceDefault}
	}

	explicit := []struct {
		code   string
		source Source
	}{
		{s.PathRegion, SourcePath},
		{s.QueryRegion, SourceQuery},
		{s.CookieRegion, SourceCookie},
	}
	for _, sig := range explicit {
		if sig.code == "" {
			continue
		}
		if region, ok := reg.FindRegion(sig.code); ok {
			return Resolved{Region: region.Code, Language: region.DefaultLanguage, Source: sig.source}
		}
	}

	if region, lang, ok := MatchAcceptLanguage(reg, s.AcceptLanguage); ok {
		return Resolved{Region: region.Code, Language: lang, Source: SourceAcceptLanguage}
	}

	if r.geo != nil && s.ClientIP != "" {
		if code, ok := r.geo.LookupRegion(s.ClientIP); ok {
			if region, ok := reg.FindRegion(code); ok {
				return Resolved{Region: region.Code, Language: region.DefaultLanguage, Source: SourceGeoIP}
			}
		}
	}

	def := reg.DefaultRegion()
	return Resolved{Region: def.Code, Language: def.DefaultLanguage, Source: SourceDefault}
}

// MatchAcceptLanguage walks an Accept-Language header in preference order and
// returns the first language some active region supports. When several regions
// support it, a region whose default language it is wins; otherwise the first
// in catalog order.
func MatchAcceptLanguage(reg *Registry, header string) (Region, string, bool) {
	if header == "" {
		return Region{}, "", false
	}
	for _, lang := range acceptedLanguages(header) {
		regions := reg.RegionsSupporting(lang)
		if len(regions) == 0 {
			continue
		}
		for _, region := range regions {
			if region.DefaultLanguage == lang {
				return region, lang, true
			}
		}
		return regions[0], lang, true
	}
	return Region{}, "", false
}

type acceptEntry struct {
	lang string
	q    float64
}

// acceptedLanguages returns the base languages of an Accept-Language header,
// most preferred first. Entries are parsed one by one: a malformed tag or
// quality value drops that entry only, and q=0 entries are refused.
func acceptedLanguages(header string) []string {
	var entries []acceptEntry
	for _, part := range strings.Split(header, ",") {
		tagPart, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		tag, err := language.Parse(strings.TrimSpace(tagPart))
		if err != nil {
			continue
		}
		q, ok := qualityOf(params)
		if !ok || q == 0 {
			continue
		}
		base, _ := tag.Base()
		entries = append(entries, acceptEntry{lang: base.String(), q: q})
	}

	slices.SortStableFunc(entries, func(a, b acceptEntry) int {
		return cmp.Compare(b.q, a.q)
	})

	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, e.lang)
	}
	return langs
}

// qualityOf reads the q parameter; absent means 1.
func qualityOf(params string) (float64, bool) {
	for _, p := range strings.Split(params, ";") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, ok := strings.CutPrefix(p, "q=")
		if !ok {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || q < 0 || q > 1 {
			return 0, false
		}
		return q, true
	}
	return 1, true
}

type resolvedKey struct{}

// WithResolved attaches the resolved pair to ctx.
func WithResolved(ctx context.Context, res Resolved) context.Context {
	return context.WithValue(ctx, resolvedKey{}, res)
}

// FromContext returns the resolved pair stamped on ctx, if any.
func FromContext(ctx context.Context) (Resolved, bool) {
	res, ok := ctx.Value(resolvedKey{}).(Resolved)
	return res, ok
}
