// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/service"
	"github.com/olegiv/blogify/internal/store"
)

// EventsPerPage is the number of events returned per page.
const EventsPerPage = 25

// EventsHandler handles event log routes.
type EventsHandler struct {
	events *service.EventService
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(es *service.EventService) *EventsHandler {
	return &EventsHandler{events: es}
}

// EventView is an event with its metadata rendered as text.
type EventView struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Routes registers the event routes.
func (h *EventsHandler) Routes(r chi.Router) {
	r.Get("/events", h.List)
}

// formatMetadata converts JSON metadata to readable text format.
// Example: {"path":"/article/x","error":"not found"} -> "error: not found, path: /article/x"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata
	}
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var strValue string
		switch v := data[key].(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			strValue = strconv.FormatBool(v)
		default:
			if b, err := json.Marshal(v); err == nil {
				strValue = string(b)
			}
		}
		parts = append(parts, key+": "+strValue)
	}
	return strings.Join(parts, ", ")
}

func toEventViews(events []store.Event) []EventView {
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, EventView{
			ID:        e.ID,
			Level:     e.Level,
			Category:  e.Category,
			Message:   e.Message,
			Details:   formatMetadata(e.Metadata),
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

// List handles GET /admin/events?page=, newest first.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}

	// One extra row tells whether another page exists.
	events, err := h.events.List(r.Context(), EventsPerPage+1, (page-1)*EventsPerPage)
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}
	hasMore := len(events) > EventsPerPage
	if hasMore {
		events = events[:EventsPerPage]
	}

	writeJSONSuccess(w, map[string]any{
		"events":   toEventViews(events),
		"page":     page,
		"has_more": hasMore,
	})
}
