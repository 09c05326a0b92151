// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the public JSON API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/logging"
	"github.com/olegiv/blogify/internal/middleware"
	"github.com/olegiv/blogify/internal/service"
	"github.com/olegiv/blogify/internal/store"
	"github.com/olegiv/blogify/internal/tracking"
	"github.com/olegiv/blogify/internal/version"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	content   *service.Content
	ads       *service.Ads
	search    *service.SearchService
	contact   *service.Contact
	tracker   *tracking.Tracker
	store     *store.Store
	registry  locale.Provider
	prefs     middleware.PreferenceStore
	limiter   func(http.Handler) http.Handler
	logger    *slog.Logger
	version   version.Info
	seo       SEOConfig
	startTime time.Time
	now       func() time.Time
}

// Deps are the collaborators of the API handlers. Limiter guards the
// tracking and contact endpoints and may be nil. Contact may be nil, which
// leaves POST /contact unregistered.
type Deps struct {
	Content  *service.Content
	Ads      *service.Ads
	Search   *service.SearchService
	Contact  *service.Contact
	Tracker  *tracking.Tracker
	Store    *store.Store
	Registry locale.Provider
	Prefs    middleware.PreferenceStore
	Limiter  func(http.Handler) http.Handler
	Logger   *slog.Logger
	Version  version.Info
	SEO      SEOConfig
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := d.Limiter
	if limiter == nil {
		limiter = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		content:   d.Content,
		ads:       d.Ads,
		search:    d.Search,
		contact:   d.Contact,
		tracker:   d.Tracker,
		store:     d.Store,
		registry:  d.Registry,
		prefs:     d.Prefs,
		limiter:   limiter,
		logger:    logger,
		version:   d.Version,
		seo:       d.SEO,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Mount registers the API under prefix, once as is and once below a
// two-letter region segment. region resolves the request locale and runs
// after routing so it sees the {region} parameter.
func (h *Handler) Mount(r chi.Router, prefix string, region func(http.Handler) http.Handler) {
	r.Route(prefix, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(region)
			h.Routes(r)
		})
		r.Route("/{"+middleware.RegionParam+":[a-zA-Z]{2}}", func(r chi.Router) {
			r.Use(region)
			h.Routes(r)
		})
	})
}

// Routes registers the API endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/regions", func(r chi.Router) {
		r.Get("/", h.ListRegions)
		r.Post("/set", h.SetRegion)
		r.Get("/language/{lang}", h.RegionsByLanguage)
		r.Get("/{code}", h.GetRegion)
	})

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.ListArticles)
		r.Get("/{slug}", h.GetArticle)
		r.With(h.limiter).Post("/{slug}/view", h.TrackArticleView)
		r.With(h.limiter).Post("/{slug}/like", h.LikeArticle)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/popular", h.PopularCategories)
		r.Get("/{slug}", h.GetCategory)
		r.Get("/{slug}/articles", h.CategoryArticles)
	})

	r.Route("/authors", func(r chi.Router) {
		r.Get("/", h.ListAuthors)
		r.Get("/{slug}", h.GetAuthor)
		r.Get("/{slug}/articles", h.AuthorArticles)
	})

	r.Route("/search", func(r chi.Router) {
		r.Get("/", h.SearchArticles)
		r.Get("/all", h.SearchAll)
		r.Get("/categories", h.SearchCategories)
		r.Get("/authors", h.SearchAuthors)
	})

	r.Route("/ads", func(r chi.Router) {
		r.Get("/", h.ListAds)
		r.Get("/rotate", h.RotateAd)
		r.Get("/{id}", h.GetAd)
		r.With(h.limiter).Post("/{id}/impression", h.AdImpression)
		r.With(h.limiter).Post("/{id}/click", h.AdClick)
	})

	r.Get("/visitors/stats", h.VisitorStats)

	if h.contact != nil {
		r.With(h.limiter).Post("/contact", h.SubmitContact)
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination and the resolved region and language.
type Meta struct {
	Region   string `json:"region,omitempty"`
	Language string `json:"language,omitempty"`
	Total    int64  `json:"total,omitempty"`
	Page     int    `json:"page,omitempty"`
	PerPage  int    `json:"per_page,omitempty"`
	Pages    int    `json:"pages,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 400 response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusBadRequest, "validation_error", "Validation failed", fieldErrors)
}

// RedirectResponse is the body of an access-gate redirect.
type RedirectResponse struct {
	Location string `json:"location"`
}

// writeRedirect sends the client to the regional sibling of the requested
// entity, keeping the query string.
func writeRedirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	w.Header().Set("Location", path)
	WriteJSON(w, http.StatusFound, Response{Data: RedirectResponse{Location: path}})
}

// writeServiceError maps domain errors onto HTTP responses. entity names the
// requested resource in messages, e.g. "Article".
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, verr.Fields)
	case errors.Is(err, content.ErrNotFound):
		WriteNotFound(w, entity+" not found")
	case errors.Is(err, content.ErrForbidden):
		WriteForbidden(w, entity+" not available in your region")
	case errors.Is(err, content.ErrIntegrity):
		h.logger.Error("entity unavailable", "path", r.URL.Path, "error", err, "category", logging.CategoryContent)
		WriteError(w, http.StatusInternalServerError, "entity_unavailable", "Entity unavailable", nil)
	case errors.Is(err, content.ErrInUse):
		WriteError(w, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, content.ErrInvalid):
		WriteBadRequest(w, err.Error(), nil)
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		WriteInternalError(w, "Failed to retrieve "+entity)
	}
}

// meta returns the metadata every response carries.
func meta(r *http.Request) *Meta {
	res := middleware.GetRegion(r)
	return &Meta{Region: res.Region, Language: res.Language}
}

// Pagination defaults.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// pagination holds parsed page parameters.
type pagination struct {
	Page    int
	PerPage int
}

func (p pagination) offset() int {
	return (p.Page - 1) * p.PerPage
}

// parsePagination reads ?page= and ?limit=, clamping both to sane bounds.
func parsePagination(r *http.Request) pagination {
	p := pagination{Page: 1, PerPage: DefaultPerPage}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.PerPage = min(v, MaxPerPage)
	}
	return p
}

// pageMeta fills the pagination fields of m.
func pageMeta(m *Meta, p pagination, total int64) *Meta {
	m.Total = total
	m.Page = p.Page
	m.PerPage = p.PerPage
	m.Pages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	return m
}

// parseIDParam parses the {id} URL parameter.
func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// queryBool reports whether the query parameter is "true" or "1".
func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
