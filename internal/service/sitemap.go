// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/logging"
	"github.com/olegiv/blogify/internal/seo"
	"github.com/olegiv/blogify/internal/store"
)

// sitemapRank sets change frequency and priority per kind.
var sitemapRank = map[content.Kind]struct {
	freq     seo.ChangeFreq
	priority string
}{
	content.KindArticle:  {seo.ChangeFreqWeekly, "0.8"},
	content.KindCategory: {seo.ChangeFreqWeekly, "0.6"},
	content.KindAuthor:   {seo.ChangeFreqMonthly, "0.5"},
}

// SitemapEntries lists the region's home page and every published entity
// visible there, one entry per language variant the region offers. Each
// entry links its sibling translations as hreflang alternates.
func (c *Content) SitemapEntries(ctx context.Context, region string) ([]seo.Entry, error) {
	reg, err := c.registry.Registry(ctx)
	if err != nil {
		return nil, err
	}
	r, ok := reg.FindRegion(region)
	if !ok || !r.Active {
		return nil, fmt.Errorf("%w: region %q", content.ErrNotFound, region)
	}

	entries := []seo.Entry{{
		Path:       c.paths.Prefix + c.paths.RegionPrefix(r.Code) + "/",
		ChangeFreq: seo.ChangeFreqDaily,
		Priority:   "1.0",
	}}

	page, err := c.ListArticles(ctx, store.ArticleFilter{Region: r.Code})
	if err != nil {
		return nil, err
	}
	for _, a := range page.Articles {
		entries = append(entries, c.entityEntries(r, content.KindArticle, a, a.UpdatedAt)...)
	}

	cats, err := c.ListCategories(ctx, r.Code)
	if err != nil {
		return nil, err
	}
	for _, cat := range cats {
		entries = append(entries, c.entityEntries(r, content.KindCategory, cat, cat.UpdatedAt)...)
	}

	authors, err := c.ListAuthors(ctx, r.Code)
	if err != nil {
		return nil, err
	}
	for _, au := range authors {
		entries = append(entries, c.entityEntries(r, content.KindAuthor, au, au.UpdatedAt)...)
	}
	return entries, nil
}

func (c *Content) entityEntries(r locale.Region, kind content.Kind, t content.Translatable, updated time.Time) []seo.Entry {
	langs := content.AvailableLanguages(t, r.Languages)
	if len(langs) == 0 {
		langs = []string{t.Localization().DefaultLanguage}
	}

	var alternates []seo.AlternatePath
	seen := make(map[string]bool, len(langs))
	for _, lang := range langs {
		path, err := c.paths.EntityPath(t, r.Code, kind.Segment(), lang)
		if err != nil {
			c.logger.Error("sitemap entry unavailable", "category", logging.CategoryContent,
				"kind", kind, "slug", t.Localization().BaseSlug, "error", err)
			return nil
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		alternates = append(alternates, seo.AlternatePath{HrefLang: seo.HrefLang(lang, r.Code), Path: path})
	}

	rank := sitemapRank[kind]
	entries := make([]seo.Entry, 0, len(alternates))
	for _, alt := range alternates {
		e := seo.Entry{
			Path:       alt.Path,
			UpdatedAt:  updated,
			ChangeFreq: rank.freq,
			Priority:   rank.priority,
		}
		if len(alternates) > 1 {
			e.Alternates = alternates
		}
		entries = append(entries, e)
	}
	return entries
}
