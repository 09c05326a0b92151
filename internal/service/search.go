// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/store"
)

// DefaultSearchLimit caps search results when the caller gives no limit.
const DefaultSearchLimit = 20

// SearchService searches translations of the content visible in a region.
type SearchService struct {
	store *store.Store
}

// SearchParams holds search parameters.
type SearchParams struct {
	Query    string
	Region   string
	Language string
	Limit    int
}

// SearchResults groups matches by kind.
type SearchResults struct {
	Articles   []content.Article
	Categories []content.Category
	Authors    []content.Author
}

// NewSearchService creates a new search service.
func NewSearchService(s *store.Store) *SearchService {
	return &SearchService{store: s}
}

func (p SearchParams) limit() int {
	if p.Limit <= 0 {
		return DefaultSearchLimit
	}
	return p.Limit
}

// Articles matches the query against the title, excerpt and body of the
// requested language and of each article's default language.
func (s *SearchService) Articles(ctx context.Context, p SearchParams) ([]content.Article, error) {
	return s.store.SearchArticles(ctx, p.Region, p.Language, p.Query, p.limit())
}

// Categories matches categories whose title or excerpt contains the query in
// the requested or default language, busiest first.
func (s *SearchService) Categories(ctx context.Context, p SearchParams) ([]content.Category, error) {
	q := strings.ToLower(strings.TrimSpace(p.Query))
	if q == "" {
		return nil, nil
	}
	categories, err := s.store.ListCategories(ctx, p.Region)
	if err != nil {
		return nil, err
	}
	var matched []content.Category
	for _, c := range categories {
		if matchesText(c.Localized, p.Language, q) {
			matched = append(matched, c)
		}
	}
	slices.SortStableFunc(matched, func(a, b content.Category) int {
		return cmp.Compare(b.PostCount, a.PostCount)
	})
	return truncate(matched, p.limit()), nil
}

// Authors matches authors by name or by the title or excerpt of their
// profile, most prolific first.
func (s *SearchService) Authors(ctx context.Context, p SearchParams) ([]content.Author, error) {
	q := strings.ToLower(strings.TrimSpace(p.Query))
	if q == "" {
		return nil, nil
	}
	authors, err := s.store.ListAuthors(ctx, p.Region)
	if err != nil {
		return nil, err
	}
	var matched []content.Author
	for _, a := range authors {
		if strings.Contains(strings.ToLower(a.Name), q) || matchesText(a.Localized, p.Language, q) {
			matched = append(matched, a)
		}
	}
	slices.SortStableFunc(matched, func(a, b content.Author) int {
		return cmp.Compare(b.ArticleCount, a.ArticleCount)
	})
	return truncate(matched, p.limit()), nil
}

// All searches articles, categories and authors.
func (s *SearchService) All(ctx context.Context, p SearchParams) (SearchResults, error) {
	if strings.TrimSpace(p.Query) == "" {
		return SearchResults{}, nil
	}

	articles, err := s.Articles(ctx, p)
	if err != nil {
		return SearchResults{}, err
	}
	categories, err := s.Categories(ctx, p)
	if err != nil {
		return SearchResults{}, err
	}
	authors, err := s.Authors(ctx, p)
	if err != nil {
		return SearchResults{}, err
	}
	return SearchResults{Articles: articles, Categories: categories, Authors: authors}, nil
}

func matchesText(l content.Localized, lang, q string) bool {
	for _, code := range []string{lang, l.DefaultLanguage} {
		v, ok := l.Variants[code]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(v.Title), q) || strings.Contains(strings.ToLower(v.Excerpt), q) {
			return true
		}
	}
	return false
}

func truncate[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}
