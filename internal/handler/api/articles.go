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

// ListArticles handles GET /articles.
// Query parameters: page, limit, category (id or slug), author (id or slug),
// featured, trending.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	res := middleware.GetRegion(r)
	p := parsePagination(r)

	f := store.ArticleFilter{
		Region:   res.Region,
		Featured: queryBool(r, "featured"),
		Trending: queryBool(r, "trending"),
		Limit:    p.PerPage,
		Offset:   p.offset(),
	}

	var err error
	if f.CategoryID, err = h.resolveRef(r, content.KindCategory, "category"); err != nil {
		h.writeServiceError(w, r, "Category", err)
		return
	}
	if f.AuthorID, err = h.resolveRef(r, content.KindAuthor, "author"); err != nil {
		h.writeServiceError(w, r, "Author", err)
		return
	}

	h.writeArticlePage(w, r, f, p)
}

// GetArticle handles GET /articles/{slug}. The slug may be the base slug or
// any language's slug. Articles hidden in the region redirect to a visible
// sibling when one exists.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	res := middleware.GetRegion(r)

	a, redirect, err := h.content.OpenArticle(r.Context(), chi.URLParam(r, "slug"), res)
	if err != nil {
		h.writeServiceError(w, r, "Article", err)
		return
	}
	if redirect != "" {
		writeRedirect(w, r, redirect)
		return
	}

	view, err := h.content.PresentArticle(r.Context(), a, res.Region, res.Language, true)
	if err != nil {
		h.writeServiceError(w, r, "Article", err)
		return
	}

	if h.tracker != nil {
		h.tracker.TrackView(a)
		id := a.ID
		h.tracker.TrackVisit(w, r, &id)
	}
	WriteSuccess(w, view, meta(r))
}

// TrackArticleView handles POST /articles/{slug}/view.
func (h *Handler) TrackArticleView(w http.ResponseWriter, r *http.Request) {
	a, ok := h.openForTracking(w, r)
	if !ok {
		return
	}
	if h.tracker != nil {
		h.tracker.TrackView(a)
	}
	w.WriteHeader(http.StatusAccepted)
}

// LikeArticle handles POST /articles/{slug}/like.
func (h *Handler) LikeArticle(w http.ResponseWriter, r *http.Request) {
	a, ok := h.openForTracking(w, r)
	if !ok {
		return
	}
	if h.tracker != nil {
		h.tracker.TrackLike(a.ID)
	}
	w.WriteHeader(http.StatusAccepted)
}

// openForTracking opens the article of a counter endpoint. Counters never
// redirect: a hidden article is forbidden.
func (h *Handler) openForTracking(w http.ResponseWriter, r *http.Request) (*content.Article, bool) {
	a, redirect, err := h.content.OpenArticle(r.Context(), chi.URLParam(r, "slug"), middleware.GetRegion(r))
	if err == nil && redirect != "" {
		err = content.ErrForbidden
	}
	if err != nil {
		h.writeServiceError(w, r, "Article", err)
		return nil, false
	}
	return a, true
}

// writeArticlePage lists one page of articles and presents them in the
// request's language.
func (h *Handler) writeArticlePage(w http.ResponseWriter, r *http.Request, f store.ArticleFilter, p pagination) {
	res := middleware.GetRegion(r)

	page, err := h.content.ListArticles(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, "articles", err)
		return
	}

	views := h.content.PresentArticles(r.Context(), page.Articles, res.Region, res.Language)
	if views == nil {
		views = []service.ArticleView{}
	}
	WriteSuccess(w, views, pageMeta(meta(r), p, page.Total))
}

// resolveRef reads a query parameter holding an entity id or slug. It
// returns 0 when the parameter is absent.
func (h *Handler) resolveRef(r *http.Request, kind content.Kind, param string) (int64, error) {
	v := r.URL.Query().Get(param)
	if v == "" {
		return 0, nil
	}
	if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
		return id, nil
	}
	e, err := h.content.Locator().Locate(r.Context(), kind, v, middleware.GetRegion(r).Language)
	if err != nil {
		return 0, err
	}
	return e.ID, nil
}
