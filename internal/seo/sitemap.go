// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the crawler-facing documents: per-region sitemaps with
// hreflang alternates and robots.txt.
package seo

import (
	"encoding/xml"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Sitemap XML namespaces.
const (
	XMLNamespace   = "http://www.sitemaps.org/schemas/sitemap/0.9"
	XHTMLNamespace = "http://www.w3.org/1999/xhtml"
)

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Valid change frequency values.
const (
	ChangeFreqAlways  ChangeFreq = "always"
	ChangeFreqHourly  ChangeFreq = "hourly"
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
	ChangeFreqYearly  ChangeFreq = "yearly"
	ChangeFreqNever   ChangeFreq = "never"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string      `xml:"loc"`
	LastMod    string      `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq  `xml:"changefreq,omitempty"`
	Priority   string      `xml:"priority,omitempty"`
	Alternates []Alternate `xml:"xhtml:link,omitempty"`
}

// Alternate is an xhtml:link pointing at a translation of the same page.
type Alternate struct {
	Rel      string `xml:"rel,attr"`
	HrefLang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	XHTML   string       `xml:"xmlns:xhtml,attr,omitempty"`
	URLs    []SitemapURL `xml:"url"`
}

// Entry is one page to list, with site-relative paths.
type Entry struct {
	Path       string
	UpdatedAt  time.Time
	ChangeFreq ChangeFreq
	Priority   string
	Alternates []AlternatePath
}

// AlternatePath is a translation of an entry.
type AlternatePath struct {
	HrefLang string
	Path     string
}

// SitemapBuilder builds sitemap XML.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
	xhtml   bool
}

// NewSitemapBuilder creates a new sitemap builder.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		urls:    make([]SitemapURL, 0),
	}
}

// Add appends an entry.
func (b *SitemapBuilder) Add(e Entry) {
	url := SitemapURL{
		Loc:        b.siteURL + e.Path,
		ChangeFreq: e.ChangeFreq,
		Priority:   e.Priority,
	}
	if !e.UpdatedAt.IsZero() {
		url.LastMod = e.UpdatedAt.UTC().Format(time.RFC3339)
	}
	for _, a := range e.Alternates {
		url.Alternates = append(url.Alternates, Alternate{
			Rel:      "alternate",
			HrefLang: a.HrefLang,
			Href:     b.siteURL + a.Path,
		})
	}
	if len(url.Alternates) > 0 {
		b.xhtml = true
	}
	b.urls = append(b.urls, url)
}

// AddAll appends every entry.
func (b *SitemapBuilder) AddAll(entries []Entry) {
	for _, e := range entries {
		b.Add(e)
	}
}

// Len returns the number of URLs added so far.
func (b *SitemapBuilder) Len() int {
	return len(b.urls)
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}
	if b.xhtml {
		sitemap.XHTML = XHTMLNamespace
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(output, xmlBytes...), nil
}

// HrefLang returns the BCP 47 tag for a language in a region, e.g. "fr-CA".
// An unparsable pair falls back to the bare language.
func HrefLang(lang, region string) string {
	if region == "" {
		return lang
	}
	tag, err := language.Parse(lang + "-" + region)
	if err != nil {
		return lang
	}
	return tag.String()
}
