// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/logging"
)

// SetRegionRequest is the body of POST /regions/set.
type SetRegionRequest struct {
	RegionCode string `json:"region_code"`
}

// ListRegions handles GET /regions.
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registry.Registry(r.Context())
	if err != nil {
		h.logger.Error("failed to load regions", "error", err, "category", logging.CategoryLocale)
		WriteInternalError(w, "Failed to retrieve regions")
		return
	}
	WriteSuccess(w, reg.ActiveRegions(), meta(r))
}

// GetRegion handles GET /regions/{code}.
func (h *Handler) GetRegion(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registry.Registry(r.Context())
	if err != nil {
		h.logger.Error("failed to load regions", "error", err, "category", logging.CategoryLocale)
		WriteInternalError(w, "Failed to retrieve region")
		return
	}
	region, ok := reg.FindRegion(chi.URLParam(r, "code"))
	if !ok {
		WriteNotFound(w, "Region not found")
		return
	}
	WriteSuccess(w, region, meta(r))
}

// RegionsByLanguage handles GET /regions/language/{lang}.
func (h *Handler) RegionsByLanguage(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registry.Registry(r.Context())
	if err != nil {
		h.logger.Error("failed to load regions", "error", err, "category", logging.CategoryLocale)
		WriteInternalError(w, "Failed to retrieve regions")
		return
	}
	regions := reg.RegionsSupporting(chi.URLParam(r, "lang"))
	if regions == nil {
		regions = []locale.Region{}
	}
	WriteSuccess(w, regions, meta(r))
}

// SetRegion handles POST /regions/set. It stores the visitor's region
// preference, which outranks Accept-Language and GeoIP on later requests.
func (h *Handler) SetRegion(w http.ResponseWriter, r *http.Request) {
	var req SetRegionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	code := strings.TrimSpace(req.RegionCode)
	if code == "" {
		WriteValidationError(w, map[string]string{"region_code": "Region code is required"})
		return
	}

	reg, err := h.registry.Registry(r.Context())
	if err != nil {
		h.logger.Error("failed to load regions", "error", err, "category", logging.CategoryLocale)
		WriteInternalError(w, "Failed to set region")
		return
	}
	region, ok := reg.FindRegion(code)
	if !ok {
		WriteNotFound(w, "Region not found")
		return
	}

	h.prefs.Set(w, r, region.Code)
	WriteSuccess(w, region, &Meta{Region: region.Code, Language: region.DefaultLanguage})
}
