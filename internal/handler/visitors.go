// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/store"
)

// Visitor report page sizes.
const (
	TopCountriesLimit = 10
	RecentPerPage     = 50
)

// VisitorsHandler handles visitor report routes.
type VisitorsHandler struct {
	store *store.Store
}

// NewVisitorsHandler creates a new VisitorsHandler.
func NewVisitorsHandler(s *store.Store) *VisitorsHandler {
	return &VisitorsHandler{store: s}
}

// Routes registers the visitor report routes.
func (h *VisitorsHandler) Routes(r chi.Router) {
	r.Route("/visitors", func(r chi.Router) {
		r.Get("/top-countries", h.TopCountries)
		r.Get("/article/{id}/countries", h.ArticleCountries)
		r.Get("/recent", h.Recent)
	})
}

// TopCountries handles GET /admin/visitors/top-countries?limit=&from=&to=&bots=.
func (h *VisitorsHandler) TopCountries(w http.ResponseWriter, r *http.Request) {
	f, ok := visitorFilter(w, r)
	if !ok {
		return
	}
	_, f.Limit = pageParams(r, TopCountriesLimit)

	countries, err := h.store.TopCountries(r.Context(), f)
	if err != nil {
		logAndInternalError(w, "failed to count visitors by country", "error", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"countries": countries})
}

// ArticleCountries handles GET /admin/visitors/article/{id}/countries.
func (h *VisitorsHandler) ArticleCountries(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	f, ok := visitorFilter(w, r)
	if !ok {
		return
	}
	f.ArticleID = &id
	// No limit.
	f.Limit = -1

	countries, err := h.store.TopCountries(r.Context(), f)
	if err != nil {
		logAndInternalError(w, "failed to count article visitors by country", "error", err, "article_id", id)
		return
	}
	writeJSONSuccess(w, map[string]any{"article_id": id, "countries": countries})
}

// Recent handles GET /admin/visitors/recent?page=&limit=&country=&article_id=&bots=.
func (h *VisitorsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	f, ok := visitorFilter(w, r)
	if !ok {
		return
	}
	page, perPage := pageParams(r, RecentPerPage)
	f.Limit = perPage
	f.Offset = (page - 1) * perPage

	visitors, total, err := h.store.RecentVisitors(r.Context(), f)
	if err != nil {
		logAndInternalError(w, "failed to list visitors", "error", err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"visitors": visitors,
		"total":    total,
		"page":     page,
		"pages":    (total + int64(perPage) - 1) / int64(perPage),
	})
}

// visitorFilter reads the shared report parameters. from and to are
// RFC 3339 timestamps or dates; bots=true includes bot traffic.
func visitorFilter(w http.ResponseWriter, r *http.Request) (store.VisitorFilter, bool) {
	q := r.URL.Query()
	f := store.VisitorFilter{
		Country: strings.ToUpper(strings.TrimSpace(q.Get("country"))),
	}
	if v := queryFlag(r, "bots"); v != nil {
		f.IncludeBots = *v
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"from", &f.Since},
		{"to", &f.Until},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := parseReportTime(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid "+p.name+" time")
			return store.VisitorFilter{}, false
		}
		*p.dst = t
	}
	if raw := q.Get("article_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSONError(w, http.StatusBadRequest, "Invalid article_id")
			return store.VisitorFilter{}, false
		}
		f.ArticleID = &id
	}
	return f, true
}

func parseReportTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
