// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/ads"
	"github.com/olegiv/blogify/internal/service"
)

// AdsHandler handles ad management routes.
type AdsHandler struct {
	ads *service.Ads
}

// NewAdsHandler creates a new AdsHandler.
func NewAdsHandler(a *service.Ads) *AdsHandler {
	return &AdsHandler{ads: a}
}

// SetStatusRequest is the body of PUT /admin/ads/{id}/status.
type SetStatusRequest struct {
	Status ads.Status `json:"status"`
}

// Routes registers the ad routes.
func (h *AdsHandler) Routes(r chi.Router) {
	r.Post("/ads", h.Create)
	r.Get("/ads/{id}", h.Get)
	r.Put("/ads/{id}/status", h.SetStatus)
}

// Create handles POST /admin/ads.
func (h *AdsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.AdInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ad, err := h.ads.CreateAd(r.Context(), in)
	if err != nil {
		writeServiceError(w, "failed to create ad", err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{"ad": ad})
}

// Get handles GET /admin/ads/{id}, including counters and CTR.
func (h *AdsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	ad, err := h.ads.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, "failed to get ad", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"ad": ad, "ctr": ad.CTR()})
}

// SetStatus handles PUT /admin/ads/{id}/status.
func (h *AdsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req SetStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ads.SetStatus(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, "failed to update ad", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"id": id, "status": req.Status})
}
