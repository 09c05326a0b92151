// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/scheduler"
)

// SchedulerHandler handles scheduler admin routes.
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(s *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

// UpdateScheduleRequest is the body of PUT /admin/scheduler/{name}.
type UpdateScheduleRequest struct {
	Schedule string `json:"schedule"`
}

// Routes registers the scheduler routes.
func (h *SchedulerHandler) Routes(r chi.Router) {
	r.Get("/scheduler", h.List)
	r.Put("/scheduler/{name}", h.UpdateSchedule)
	r.Post("/scheduler/{name}/trigger", h.TriggerNow)
}

// List handles GET /admin/scheduler.
func (h *SchedulerHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, map[string]any{"jobs": h.scheduler.List()})
}

// TriggerNow handles POST /admin/scheduler/{name}/trigger. The job runs on
// the request goroutine and its error, if any, is reported.
func (h *SchedulerHandler) TriggerNow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.scheduler.TriggerNow(name); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			writeJSONError(w, http.StatusNotFound, "Job not found")
			return
		}
		slog.Warn("manual job run failed", "name", name, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"name":    name,
			"error":   err.Error(),
		})
		return
	}
	writeJSONSuccess(w, map[string]any{"name": name})
}

// UpdateSchedule handles PUT /admin/scheduler/{name}.
func (h *SchedulerHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req UpdateScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	schedule := strings.TrimSpace(req.Schedule)
	if schedule == "" {
		writeJSONError(w, http.StatusBadRequest, "Schedule is required")
		return
	}

	name := chi.URLParam(r, "name")
	err := h.scheduler.UpdateSchedule(name, schedule)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		writeJSONError(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, scheduler.ErrInvalidSchedule):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		logAndInternalError(w, "failed to update schedule", "name", name, "error", err)
	default:
		writeJSONSuccess(w, map[string]any{"name": name, "schedule": schedule})
	}
}
