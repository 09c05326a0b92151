// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/middleware"
	"github.com/olegiv/blogify/internal/service"
	"github.com/olegiv/blogify/internal/store"
)

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	res := middleware.GetRegion(r)

	list, err := h.content.ListCategories(r.Context(), res.Region)
	if err != nil {
		h.writeServiceError(w, r, "categories", err)
		return
	}
	WriteSuccess(w, h.presentCategories(r, list, res.Region, res.Language), meta(r))
}

// PopularCategories handles GET /categories/popular?limit=.
func (h *Handler) PopularCategories(w http.ResponseWriter, r *http.Request) {
	res := middleware.GetRegion(r)

	limit := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, MaxPerPage)
	}
	list, err := h.content.PopularCategories(r.Context(), res.Region, limit)
	if err != nil {
		h.writeServiceError(w, r, "categories", err)
		return
	}
	WriteSuccess(w, h.presentCategories(r, list, res.Region, res.Language), meta(r))
}

// presentCategories localizes list, skipping categories that cannot be
// presented.
func (h *Handler) presentCategories(r *http.Request, list []content.Category, region, lang string) []service.CategoryView {
	views := make([]service.CategoryView, 0, len(list))
	for i := range list {
		v, err := h.content.PresentCategory(r.Context(), &list[i], region, lang)
		if err != nil {
			continue
		}
		views = append(views, v)
	}
	return views
}

// GetCategory handles GET /categories/{slug}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	res := middleware.GetRegion(r)

	cat, redirect, err := h.content.OpenCategory(r.Context(), chi.URLParam(r, "slug"), res)
	if err != nil {
		h.writeServiceError(w, r, "Category", err)
		return
	}
	if redirect != "" {
		writeRedirect(w, r, redirect)
		return
	}

	view, err := h.content.PresentCategory(r.Context(), cat, res.Region, res.Language)
	if err != nil {
		h.writeServiceError(w, r, "Category", err)
		return
	}
	WriteSuccess(w, view, meta(r))
}

// CategoryArticles handles GET /categories/{slug}/articles.
func (h *Handler) CategoryArticles(w http.ResponseWriter, r *http.Request) {
	res := middleware.GetRegion(r)

	cat, redirect, err := h.content.OpenCategory(r.Context(), chi.URLParam(r, "slug"), res)
	if err != nil {
		h.writeServiceError(w, r, "Category", err)
		return
	}
	if redirect != "" {
		writeRedirect(w, r, redirect)
		return
	}

	p := parsePagination(r)
	h.writeArticlePage(w, r, store.ArticleFilter{
		Region:     res.Region,
		CategoryID: cat.ID,
		Limit:      p.PerPage,
		Offset:     p.offset(),
	}, p)
}

// ListAuthors handles GET /authors.
func (h *Handler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	res := middleware.GetRegion(r)

	list, err := h.content.ListAuthors(r.Context(), res.Region)
	if err != nil {
		h.writeServiceError(w, r, "authors", err)
		return
	}

	views := make([]service.AuthorView, 0, len(list))
	for i := range list {
		v, err := h.content.PresentAuthor(r.Context(), &list[i], res.Region, res.Language)
		if err != nil {
			continue
		}
		views = append(views, v)
	}
	WriteSuccess(w, views, meta(r))
}

// GetAuthor handles GET /authors/{slug}.
func (h *Handler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	res := middleware.GetRegion(r)

	au, redirect, err := h.content.OpenAuthor(r.Context(), chi.URLParam(r, "slug"), res)
	if err != nil {
		h.writeServiceError(w, r, "Author", err)
		return
	}
	if redirect != "" {
		writeRedirect(w, r, redirect)
		return
	}

	view, err := h.content.PresentAuthor(r.Context(), au, res.Region, res.Language)
	if err != nil {
		h.writeServiceError(w, r, "Author", err)
		return
	}
	WriteSuccess(w, view, meta(r))
}

// AuthorArticles handles GET /authors/{slug}/articles.
func (h *Handler) AuthorArticles(w http.ResponseWriter, r *http.Request) {
	res := middleware.GetRegion(r)

	au, redirect, err := h.content.OpenAuthor(r.Context(), chi.URLParam(r, "slug"), res)
	if err != nil {
		h.writeServiceError(w, r, "Author", err)
		return
	}
	if redirect != "" {
		writeRedirect(w, r, redirect)
		return
	}

	p := parsePagination(r)
	h.writeArticlePage(w, r, store.ArticleFilter{
		Region:   res.Region,
		AuthorID: au.ID,
		Limit:    p.PerPage,
		Offset:   p.offset(),
	}, p)
}
