// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"
)

func TestSitemapBuilderAdd(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com/")
	updatedAt := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	builder.Add(Entry{
		Path:       "/fr/article/aurores",
		UpdatedAt:  updatedAt,
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.8",
		Alternates: []AlternatePath{
			{HrefLang: "fr-FR", Path: "/fr/article/aurores"},
			{HrefLang: "en-FR", Path: "/fr/article/northern-lights"},
		},
	})

	if builder.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", builder.Len())
	}

	url := builder.urls[0]
	if url.Loc != "https://example.com/fr/article/aurores" {
		t.Errorf("Loc = %q, want %q", url.Loc, "https://example.com/fr/article/aurores")
	}
	if url.LastMod != "2025-01-15T10:00:00Z" {
		t.Errorf("LastMod = %q, want %q", url.LastMod, "2025-01-15T10:00:00Z")
	}
	if len(url.Alternates) != 2 {
		t.Fatalf("Alternates length = %d, want 2", len(url.Alternates))
	}
	alt := url.Alternates[1]
	if alt.Rel != "alternate" || alt.HrefLang != "en-FR" || alt.Href != "https://example.com/fr/article/northern-lights" {
		t.Errorf("Alternates[1] = %+v", alt)
	}
}

func TestSitemapBuilderBuild(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com")
	builder.AddAll([]Entry{
		{Path: "/", ChangeFreq: ChangeFreqDaily, Priority: "1.0"},
		{
			Path:       "/article/northern-lights",
			Alternates: []AlternatePath{{HrefLang: "en-US", Path: "/article/northern-lights"}},
		},
	})

	out, err := builder.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	s := string(out)

	for _, want := range []string{
		xml.Header,
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:xhtml="http://www.w3.org/1999/xhtml">`,
		"<loc>https://example.com/</loc>",
		"<changefreq>daily</changefreq>",
		`<xhtml:link rel="alternate" hreflang="en-US" href="https://example.com/article/northern-lights"></xhtml:link>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("Build() should contain %q, got:\n%s", want, s)
		}
	}
}

func TestSitemapBuilderBuildWithoutAlternates(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com")
	builder.Add(Entry{Path: "/"})

	out, err := builder.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if strings.Contains(string(out), "xmlns:xhtml") {
		t.Errorf("Build() declared the xhtml namespace without alternates:\n%s", out)
	}
	if strings.Contains(string(out), "<lastmod>") {
		t.Errorf("Build() wrote lastmod for a zero time:\n%s", out)
	}
}

func TestSitemapBuilderBuildEmpty(t *testing.T) {
	out, err := NewSitemapBuilder("https://example.com").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(string(out), "<urlset") {
		t.Errorf("Build() = %s, want an empty urlset", out)
	}
}

func TestHrefLang(t *testing.T) {
	tests := []struct {
		lang, region string
		want         string
	}{
		{"fr", "CA", "fr-CA"},
		{"en", "US", "en-US"},
		{"sv", "FI", "sv-FI"},
		{"de", "CH", "de-CH"},
		{"en", "", "en"},
	}

	for _, tt := range tests {
		if got := HrefLang(tt.lang, tt.region); got != tt.want {
			t.Errorf("HrefLang(%q, %q) = %q, want %q", tt.lang, tt.region, got, tt.want)
		}
	}
}
