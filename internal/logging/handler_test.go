// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/olegiv/blogify/internal/store"
	"github.com/olegiv/blogify/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, db *sql.DB) []store.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func TestEventLogHandler_Levels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(*slog.Logger)
		wantLevel string // empty: not captured
	}{
		{"error", func(l *slog.Logger) { l.Error("database connection failed") }, LevelError},
		{"warn", func(l *slog.Logger) { l.Warn("slow query") }, LevelWarning},
		{"info", func(l *slog.Logger) { l.Info("server started") }, ""},
		{"debug", func(l *slog.Logger) { l.Debug("tick") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, cleanup := testutil.TestDB(t)
			defer cleanup()

			tt.log(slog.New(NewEventLogHandler(discardHandler{}, db)))

			events := listEvents(t, db)
			if tt.wantLevel == "" {
				if len(events) != 0 {
					t.Fatalf("got %d events, want 0", len(events))
				}
				return
			}
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			if events[0].Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", events[0].Level, tt.wantLevel)
			}
		})
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))
	logger.Info("server started")

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Level != LevelInfo {
		t.Errorf("Level = %q, want %q", events[0].Level, LevelInfo)
	}
}

func TestExtractCategory(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"skipping invalid region", CategoryLocale},
		{"geoip database reload failed", CategoryLocale},
		{"article not found", CategoryContent},
		{"ads cache refresh failed", CategoryAds},
		{"tracking queue full", CategoryTracking},
		{"invalid config value", CategoryConfig},
		{"cache unavailable", CategoryCache},
		{"job panicked", CategoryScheduler},
		{"something happened", CategorySystem},
	}

	for _, tt := range tests {
		if got := extractCategory(tt.msg, nil); got != tt.want {
			t.Errorf("extractCategory(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestEventLogHandler_ExplicitCategory(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Error("article lookup failed", "category", CategoryTracking)

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Category != CategoryTracking {
		t.Errorf("Category = %q, want %q (explicit category should override)", events[0].Category, CategoryTracking)
	}
}

func TestEventLogHandler_Metadata(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).With("component", "resolver")
	logger.Warn("region lookup failed", "ip", "203.0.113.7", "note", "quote \" and\nnewline", "category", CategoryLocale)

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata %q is not valid JSON: %v", events[0].Metadata, err)
	}
	if meta["component"] != "resolver" {
		t.Errorf("component = %q, want %q", meta["component"], "resolver")
	}
	if meta["ip"] != "203.0.113.7" {
		t.Errorf("ip = %q, want %q", meta["ip"], "203.0.113.7")
	}
	if meta["note"] != "quote \" and\nnewline" {
		t.Errorf("note = %q", meta["note"])
	}
	if _, ok := meta["category"]; ok {
		t.Error("category should not be repeated in metadata")
	}
}

func TestEventLogHandler_NoAttrs(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	slog.New(NewEventLogHandler(discardHandler{}, db)).Error("plain")

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Metadata != "{}" {
		t.Errorf("Metadata = %q, want {}", events[0].Metadata)
	}
}
