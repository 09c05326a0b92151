// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"
)

// Visitor stats window bounds, in days.
const (
	DefaultStatsDays = 30
	MaxStatsDays     = 365
)

// VisitorStats handles GET /visitors/stats?days=.
func (h *Handler) VisitorStats(w http.ResponseWriter, r *http.Request) {
	days := DefaultStatsDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > MaxStatsDays {
			WriteValidationError(w, map[string]string{"days": "Days must be between 1 and 365"})
			return
		}
		days = n
	}

	since := h.now().AddDate(0, 0, -days)
	stats, err := h.store.GetVisitorStats(r.Context(), since)
	if err != nil {
		h.writeServiceError(w, r, "visitor stats", err)
		return
	}
	WriteSuccess(w, stats, meta(r))
}

