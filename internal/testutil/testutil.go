// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the blogify project.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// SeedTime is the fixed clock used when seeding test databases.
var SeedTime = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary file database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "blogify-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// TestMemoryDB creates a migrated in-memory SQLite database. The pool is
// limited to one connection so every query sees the same database.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// SeededStore returns a store over an in-memory database holding the seed
// languages and regions.
func SeededStore(t *testing.T) *store.Store {
	t.Helper()

	s := store.NewStore(TestMemoryDB(t))
	if _, err := s.Seed(context.Background(), SeedTime); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s
}

// SeedRegistry builds a registry from the seed catalog with US as default.
func SeedRegistry(t *testing.T) *locale.Registry {
	t.Helper()

	langs := make([]string, 0, len(store.SeedLanguages))
	for _, l := range store.SeedLanguages {
		langs = append(langs, l.Code)
	}
	reg, err := locale.NewRegistry(locale.Catalog{
		Languages:     langs,
		Regions:       store.SeedRegions,
		DefaultRegion: "US",
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}
