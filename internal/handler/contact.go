// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/service"
	"github.com/olegiv/blogify/internal/store"
)

// ContactPerPage is the default page size of the contact inbox.
const ContactPerPage = 20

// ContactHandler handles the contact inbox routes.
type ContactHandler struct {
	contact *service.Contact
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(c *service.Contact) *ContactHandler {
	return &ContactHandler{contact: c}
}

// Routes registers the contact routes.
func (h *ContactHandler) Routes(r chi.Router) {
	r.Route("/contact", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/unread/count", h.Counts)
		r.Get("/{id}", h.Get)
		r.Put("/{id}/read", h.MarkRead)
		r.Put("/{id}/replied", h.MarkReplied)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /admin/contact?read=&replied=&page=&limit=.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r, ContactPerPage)
	f := store.ContactFilter{
		Read:    queryFlag(r, "read"),
		Replied: queryFlag(r, "replied"),
		Limit:   perPage,
		Offset:  (page - 1) * perPage,
	}

	messages, total, err := h.contact.List(r.Context(), f)
	if err != nil {
		logAndInternalError(w, "failed to list contact messages", "error", err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"messages": messages,
		"total":    total,
		"page":     page,
		"pages":    (total + int64(perPage) - 1) / int64(perPage),
	})
}

// Get handles GET /admin/contact/{id}. Opening a message marks it read.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	m, err := h.contact.Open(r.Context(), id)
	if err != nil {
		writeServiceError(w, "failed to open contact message", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"message": m})
}

// MarkRead handles PUT /admin/contact/{id}/read.
func (h *ContactHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	m, err := h.contact.MarkRead(r.Context(), id)
	if err != nil {
		writeServiceError(w, "failed to mark contact message read", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"message": m})
}

// MarkReplied handles PUT /admin/contact/{id}/replied.
func (h *ContactHandler) MarkReplied(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	m, err := h.contact.MarkReplied(r.Context(), id)
	if err != nil {
		writeServiceError(w, "failed to mark contact message replied", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"message": m})
}

// Delete handles DELETE /admin/contact/{id}.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.contact.Delete(r.Context(), id); err != nil {
		writeServiceError(w, "failed to delete contact message", err)
		return
	}
	writeJSONSuccess(w, nil)
}

// Counts handles GET /admin/contact/unread/count.
func (h *ContactHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.contact.Counts(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count contact messages", "error", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"unread": counts.Unread, "unreplied": counts.Unreplied})
}

// pageParams reads ?page= and ?limit=, capping limit at 100.
func pageParams(r *http.Request, defaultLimit int) (page, limit int) {
	page, limit = 1, defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, 100)
	}
	return page, limit
}

// queryFlag parses a true/false query parameter; anything else is nil.
func queryFlag(r *http.Request, name string) *bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	if err != nil {
		return nil
	}
	return &v
}
