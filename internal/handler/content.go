// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/logging"
	"github.com/olegiv/blogify/internal/service"
)

// ContentHandler handles content authoring routes.
type ContentHandler struct {
	content *service.Content
	events  *service.EventService
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(c *service.Content, es *service.EventService) *ContentHandler {
	return &ContentHandler{content: c, events: es}
}

// Routes registers the authoring routes.
func (h *ContentHandler) Routes(r chi.Router) {
	r.Post("/articles", h.CreateArticle)
	r.Delete("/articles/{id}", h.DeleteArticle)
	r.Post("/categories", h.CreateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)
	r.Post("/authors", h.CreateAuthor)
	r.Delete("/authors/{id}", h.DeleteAuthor)

	r.Route("/entities/{id}", func(r chi.Router) {
		r.Put("/variants/{lang}", h.PutVariant)
		r.Delete("/variants/{lang}", h.DeleteVariant)
		r.Post("/publish", h.Publish)
		r.Post("/unpublish", h.Unpublish)
	})
}

// CreateArticle handles POST /admin/articles.
func (h *ContentHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var in service.ArticleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.content.CreateArticle(r.Context(), in)
	if err != nil {
		writeServiceError(w, "failed to create article", err)
		return
	}
	h.logEvent(r.Context(), "Article created", map[string]any{"id": a.ID, "base_slug": a.BaseSlug})
	writeJSONStatus(w, http.StatusCreated, map[string]any{"article": a})
}

// CreateCategory handles POST /admin/categories.
func (h *ContentHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.content.CreateCategory(r.Context(), in)
	if err != nil {
		writeServiceError(w, "failed to create category", err)
		return
	}
	h.logEvent(r.Context(), "Category created", map[string]any{"id": c.ID, "base_slug": c.BaseSlug})
	writeJSONStatus(w, http.StatusCreated, map[string]any{"category": c})
}

// CreateAuthor handles POST /admin/authors.
func (h *ContentHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var in service.AuthorInput
	if !decodeJSON(w, r, &in) {
		return
	}
	au, err := h.content.CreateAuthor(r.Context(), in)
	if err != nil {
		writeServiceError(w, "failed to create author", err)
		return
	}
	h.logEvent(r.Context(), "Author created", map[string]any{"id": au.ID, "base_slug": au.BaseSlug})
	writeJSONStatus(w, http.StatusCreated, map[string]any{"author": au})
}

// PutVariant handles PUT /admin/entities/{id}/variants/{lang}.
func (h *ContentHandler) PutVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in service.VariantInput
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := h.content.AddVariant(r.Context(), id, chi.URLParam(r, "lang"), in)
	if err != nil {
		writeServiceError(w, "failed to save variant", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"entity": e})
}

// DeleteVariant handles DELETE /admin/entities/{id}/variants/{lang}.
func (h *ContentHandler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	e, err := h.content.RemoveVariant(r.Context(), id, chi.URLParam(r, "lang"))
	if err != nil {
		writeServiceError(w, "failed to remove variant", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"entity": e})
}

// Publish handles POST /admin/entities/{id}/publish.
func (h *ContentHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

// Unpublish handles POST /admin/entities/{id}/unpublish.
func (h *ContentHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *ContentHandler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.content.SetPublished(r.Context(), id, published); err != nil {
		writeServiceError(w, "failed to update entity", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"id": id, "published": published})
}

// DeleteArticle handles DELETE /admin/articles/{id}.
func (h *ContentHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	h.deleteEntity(w, r, "Article deleted", h.content.DeleteArticle)
}

// DeleteCategory handles DELETE /admin/categories/{id}.
func (h *ContentHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	h.deleteEntity(w, r, "Category deleted", h.content.DeleteCategory)
}

// DeleteAuthor handles DELETE /admin/authors/{id}.
func (h *ContentHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	h.deleteEntity(w, r, "Author deleted", h.content.DeleteAuthor)
}

func (h *ContentHandler) deleteEntity(w http.ResponseWriter, r *http.Request, msg string, del func(context.Context, int64) error) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := del(r.Context(), id); err != nil {
		writeServiceError(w, "failed to delete entity", err)
		return
	}
	h.logEvent(r.Context(), msg, map[string]any{"id": id})
	writeJSONSuccess(w, map[string]any{"id": id})
}

func (h *ContentHandler) logEvent(ctx context.Context, msg string, metadata map[string]any) {
	if h.events == nil {
		return
	}
	if err := h.events.LogInfo(ctx, logging.CategoryContent, msg, metadata); err != nil {
		slog.Warn("failed to record event", "message", msg, "error", err)
	}
}
