// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"cmp"
	"context"
	"slices"

	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/metrics"
	"github.com/olegiv/blogify/internal/store"
)

// Opened is the outcome of opening an entity by slug in a region. Exactly
// one of Entity and RedirectPath is set.
type Opened struct {
	Entity       *content.Entity
	RedirectPath string
}

// Open locates an entity by slug and runs the access gate for the request's
// region. A forbidden entity yields content.ErrForbidden. When the sibling's
// URL is the requested URL the sibling is served directly.
func (c *Content) Open(ctx context.Context, kind content.Kind, slug string, res locale.Resolved) (Opened, error) {
	e, err := c.locator.Locate(ctx, kind, slug, res.Language)
	if err != nil {
		return Opened{}, err
	}

	access, err := c.gate.Check(ctx, e, res.Region)
	if err != nil {
		return Opened{}, err
	}
	metrics.GateDecisions.WithLabelValues(string(kind), access.Decision.String()).Inc()

	switch access.Decision {
	case content.Visible:
		return Opened{Entity: e}, nil
	case content.Redirect:
		target, err := c.paths.EntityPath(access.Target, res.Region, kind.Segment(), res.Language)
		if err != nil {
			return Opened{}, err
		}
		if target == c.paths.Path(res.Region, kind.Segment(), slug) {
			return Opened{Entity: access.Target}, nil
		}
		return Opened{RedirectPath: target}, nil
	default:
		return Opened{}, content.ErrForbidden
	}
}

// OpenArticle opens an article by slug.
func (c *Content) OpenArticle(ctx context.Context, slug string, res locale.Resolved) (*content.Article, string, error) {
	o, err := c.Open(ctx, content.KindArticle, slug, res)
	if err != nil || o.Entity == nil {
		return nil, o.RedirectPath, err
	}
	a, err := c.store.GetArticle(ctx, o.Entity.ID)
	return a, "", err
}

// OpenCategory opens a category by slug.
func (c *Content) OpenCategory(ctx context.Context, slug string, res locale.Resolved) (*content.Category, string, error) {
	o, err := c.Open(ctx, content.KindCategory, slug, res)
	if err != nil || o.Entity == nil {
		return nil, o.RedirectPath, err
	}
	cat, err := c.store.GetCategory(ctx, o.Entity.ID)
	return cat, "", err
}

// OpenAuthor opens an author by slug.
func (c *Content) OpenAuthor(ctx context.Context, slug string, res locale.Resolved) (*content.Author, string, error) {
	o, err := c.Open(ctx, content.KindAuthor, slug, res)
	if err != nil || o.Entity == nil {
		return nil, o.RedirectPath, err
	}
	au, err := c.store.GetAuthor(ctx, o.Entity.ID)
	return au, "", err
}

// ArticlePage is one page of a region-filtered article listing.
type ArticlePage struct {
	Articles []content.Article
	Total    int64
}

// ListArticles returns the published articles visible in f.Region.
func (c *Content) ListArticles(ctx context.Context, f store.ArticleFilter) (ArticlePage, error) {
	list, err := c.store.ListArticles(ctx, f)
	if err != nil {
		return ArticlePage{}, err
	}
	total, err := c.store.CountArticles(ctx, f)
	if err != nil {
		return ArticlePage{}, err
	}
	return ArticlePage{Articles: list, Total: total}, nil
}

// ListCategories returns the categories visible in region.
func (c *Content) ListCategories(ctx context.Context, region string) ([]content.Category, error) {
	return c.store.ListCategories(ctx, region)
}

// DefaultPopularLimit is the number of popular categories returned when the
// caller gives no limit.
const DefaultPopularLimit = 4

// PopularCategories returns the categories flagged popular in region, busiest
// first.
func (c *Content) PopularCategories(ctx context.Context, region string, limit int) ([]content.Category, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	list, err := c.store.ListCategories(ctx, region)
	if err != nil {
		return nil, err
	}
	popular := make([]content.Category, 0, limit)
	for _, cat := range list {
		if cat.IsPopular {
			popular = append(popular, cat)
		}
	}
	slices.SortStableFunc(popular, func(a, b content.Category) int {
		return cmp.Compare(b.PostCount, a.PostCount)
	})
	if len(popular) > limit {
		popular = popular[:limit]
	}
	return popular, nil
}

// ListAuthors returns the authors visible in region.
func (c *Content) ListAuthors(ctx context.Context, region string) ([]content.Author, error) {
	return c.store.ListAuthors(ctx, region)
}

// Locator returns the slug locator, shared with the legacy redirector.
func (c *Content) Locator() *content.Locator {
	return c.locator
}
