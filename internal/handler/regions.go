// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/store"
)

// RegionsHandler handles region catalog routes.
type RegionsHandler struct {
	store    *store.Store
	registry RegistryInvalidator
	now      func() time.Time
}

// NewRegionsHandler creates a new RegionsHandler.
func NewRegionsHandler(s *store.Store, registry RegistryInvalidator) *RegionsHandler {
	return &RegionsHandler{store: s, registry: registry, now: time.Now}
}

// SetActiveRequest is the body of PUT /admin/regions/{code}/active.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// Routes registers the region routes.
func (h *RegionsHandler) Routes(r chi.Router) {
	r.Get("/regions", h.List)
	r.Put("/regions/{code}/active", h.SetActive)
	r.Post("/regions/reload", h.Reload)
}

// List handles GET /admin/regions, including inactive regions.
func (h *RegionsHandler) List(w http.ResponseWriter, r *http.Request) {
	regions, err := h.store.ListRegions(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list regions", "error", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"regions": regions})
}

// SetActive handles PUT /admin/regions/{code}/active. The registry is
// reloaded so the change applies to the next request.
func (h *RegionsHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code := locale.NormalizeRegionCode(chi.URLParam(r, "code"))
	if err := h.store.SetRegionActive(r.Context(), code, req.Active, h.now().UTC()); err != nil {
		writeServiceError(w, "failed to update region", err)
		return
	}
	h.registry.Invalidate(r.Context())
	writeJSONSuccess(w, map[string]any{"code": code, "active": req.Active})
}

// Reload handles POST /admin/regions/reload.
func (h *RegionsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.registry.Invalidate(r.Context())
	writeJSONSuccess(w, nil)
}
