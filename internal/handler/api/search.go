// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/blogify/internal/middleware"
	"github.com/olegiv/blogify/internal/service"
)

// SearchAllResponse groups search matches by kind.
type SearchAllResponse struct {
	Articles   []service.ArticleView  `json:"articles"`
	Categories []service.CategoryView `json:"categories"`
	Authors    []service.AuthorView   `json:"authors"`
}

func (h *Handler) searchParams(w http.ResponseWriter, r *http.Request) (service.SearchParams, bool) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		WriteValidationError(w, map[string]string{"q": "Search query is required"})
		return service.SearchParams{}, false
	}
	res := middleware.GetRegion(r)
	p := service.SearchParams{Query: q, Region: res.Region, Language: res.Language}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, MaxPerPage)
	}
	return p, true
}

// SearchArticles handles GET /search?q=.
func (h *Handler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	p, ok := h.searchParams(w, r)
	if !ok {
		return
	}

	list, err := h.search.Articles(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, "search results", err)
		return
	}

	views := h.content.PresentArticles(r.Context(), list, p.Region, p.Language)
	if views == nil {
		views = []service.ArticleView{}
	}
	m := meta(r)
	m.Total = int64(len(views))
	WriteSuccess(w, views, m)
}

// SearchAll handles GET /search/all?q=.
func (h *Handler) SearchAll(w http.ResponseWriter, r *http.Request) {
	p, ok := h.searchParams(w, r)
	if !ok {
		return
	}

	found, err := h.search.All(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, "search results", err)
		return
	}

	out := SearchAllResponse{
		Articles:   h.content.PresentArticles(r.Context(), found.Articles, p.Region, p.Language),
		Authors:    []service.AuthorView{},
	}
	if out.Articles == nil {
		out.Articles = []service.ArticleView{}
	}
	out.Categories = h.presentCategories(r, found.Categories, p.Region, p.Language)
	for i := range found.Authors {
		if v, err := h.content.PresentAuthor(r.Context(), &found.Authors[i], p.Region, p.Language); err == nil {
			out.Authors = append(out.Authors, v)
		}
	}
	WriteSuccess(w, out, meta(r))
}

// SearchCategories handles GET /search/categories?q=.
func (h *Handler) SearchCategories(w http.ResponseWriter, r *http.Request) {
	p, ok := h.searchParams(w, r)
	if !ok {
		return
	}

	found, err := h.search.Categories(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, "search results", err)
		return
	}

	views := h.presentCategories(r, found, p.Region, p.Language)
	m := meta(r)
	m.Total = int64(len(views))
	WriteSuccess(w, views, m)
}

// SearchAuthors handles GET /search/authors?q=.
func (h *Handler) SearchAuthors(w http.ResponseWriter, r *http.Request) {
	p, ok := h.searchParams(w, r)
	if !ok {
		return
	}

	found, err := h.search.Authors(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, "search results", err)
		return
	}

	views := make([]service.AuthorView, 0, len(found))
	for i := range found {
		if v, err := h.content.PresentAuthor(r.Context(), &found[i], p.Region, p.Language); err == nil {
			views = append(views, v)
		}
	}
	m := meta(r)
	m.Total = int64(len(views))
	WriteSuccess(w, views, m)
}
