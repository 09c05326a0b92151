// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/olegiv/blogify/internal/ads"
	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/middleware"
	"github.com/olegiv/blogify/internal/service"
)

// ClickResponse is the body of POST /ads/{id}/click.
type ClickResponse struct {
	ClickURL string `json:"click_url"`
}

// activeParams reads the ad targeting parameters: placement (required),
// category (id or slug) and limit.
func (h *Handler) activeParams(w http.ResponseWriter, r *http.Request) (service.ActiveParams, bool) {
	placement := ads.Placement(r.URL.Query().Get("placement"))
	if !placement.Valid() {
		WriteValidationError(w, map[string]string{"placement": "Valid placement is required"})
		return service.ActiveParams{}, false
	}

	res := middleware.GetRegion(r)
	p := service.ActiveParams{Placement: placement, Region: res.Region, Language: res.Language}

	catID, err := h.resolveRef(r, content.KindCategory, "category")
	if err != nil {
		h.writeServiceError(w, r, "Category", err)
		return service.ActiveParams{}, false
	}
	if catID != 0 {
		p.CategoryID = &catID
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, MaxPerPage)
	}
	return p, true
}

// ListAds handles GET /ads?placement=.
func (h *Handler) ListAds(w http.ResponseWriter, r *http.Request) {
	p, ok := h.activeParams(w, r)
	if !ok {
		return
	}

	list, err := h.ads.Active(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, "ads", err)
		return
	}

	views := make([]service.AdView, 0, len(list))
	for _, ad := range list {
		v, err := service.PresentAd(ad, p.Language)
		if err != nil {
			continue
		}
		views = append(views, v)
	}
	WriteSuccess(w, views, meta(r))
}

// RotateAd handles GET /ads/rotate?placement=. It draws one eligible ad
// weighted by priority and answers 204 when nothing is eligible.
func (h *Handler) RotateAd(w http.ResponseWriter, r *http.Request) {
	p, ok := h.activeParams(w, r)
	if !ok {
		return
	}

	ad, found, err := h.ads.Rotate(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, "ads", err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	view, err := service.PresentAd(ad, p.Language)
	if err != nil {
		h.writeServiceError(w, r, "Ad", err)
		return
	}
	WriteSuccess(w, view, meta(r))
}

// GetAd handles GET /ads/{id}.
func (h *Handler) GetAd(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid ad ID", nil)
		return
	}

	ad, err := h.ads.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Ad", err)
		return
	}

	view, err := service.PresentAd(*ad, middleware.GetRegion(r).Language)
	if err != nil {
		h.writeServiceError(w, r, "Ad", err)
		return
	}
	WriteSuccess(w, view, meta(r))
}

// AdImpression handles POST /ads/{id}/impression.
func (h *Handler) AdImpression(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid ad ID", nil)
		return
	}
	if err := h.ads.RecordImpression(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "Ad", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// AdClick handles POST /ads/{id}/click and returns the ad's click URL.
func (h *Handler) AdClick(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid ad ID", nil)
		return
	}
	url, err := h.ads.RecordClick(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Ad", err)
		return
	}
	WriteSuccess(w, ClickResponse{ClickURL: url}, nil)
}
