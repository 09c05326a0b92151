// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blogify/internal/ads"
	"github.com/olegiv/blogify/internal/cache"
	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/middleware"
	"github.com/olegiv/blogify/internal/scheduler"
	"github.com/olegiv/blogify/internal/service"
	"github.com/olegiv/blogify/internal/store"
	"github.com/olegiv/blogify/internal/testutil"
)

const testToken = "test-token"

type nopRecorder struct{}

func (nopRecorder) TrackAdImpression(int64) {}
func (nopRecorder) TrackAdClick(int64)      {}

type adminEnv struct {
	router  http.Handler
	store   *store.Store
	regions *cache.RegionCache
	runs    *atomic.Int64
}

func newAdminEnv(t *testing.T) adminEnv {
	t.Helper()

	logger := testutil.TestLoggerSilent()
	s := testutil.SeededStore(t)
	regions := cache.NewRegionCache(s, "US", cache.WithRegionLogger(logger))

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	contentSvc := service.NewContent(s, regions, content.Paths{DefaultRegion: "US"}, logger)
	adsSvc := service.NewAds(s, regions, mem, time.Minute, ads.NewPicker(rand.NewPCG(1, 2)), nopRecorder{}, logger)
	events := service.NewEventService(s.DB())

	runs := &atomic.Int64{}
	sched := scheduler.New(logger)
	require.NoError(t, sched.Add("count", "counts runs", "@every 1h", func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	admin := Admin{
		Content:   NewContentHandler(contentSvc, events),
		Ads:       NewAdsHandler(adsSvc),
		Regions:   NewRegionsHandler(s, regions),
		Scheduler: NewSchedulerHandler(sched),
		Events:    NewEventsHandler(events),
		Cache: NewCacheHandler(cache.Info{Backend: "memory"}, mem, regions, map[string]cache.StatsProvider{
			"regions": regions,
			"shared":  mem,
		}),
		Contact:  NewContactHandler(service.NewContact(s, logger)),
		Visitors: NewVisitorsHandler(s),
	}

	r := chi.NewRouter()
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminToken(testToken))
		admin.Routes(r)
	})
	return adminEnv{router: r, store: s, regions: regions, runs: runs}
}

func (e adminEnv) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

// createdID returns the id of the entity stored under key.
func createdID(t *testing.T, resp map[string]any, key string) int64 {
	t.Helper()
	obj, ok := resp[key].(map[string]any)
	require.True(t, ok, "response has no %q: %v", key, resp)
	id, ok := obj["id"].(float64)
	require.True(t, ok, "%q has no id: %v", key, obj)
	return int64(id)
}

func TestAdmin_RequiresToken(t *testing.T) {
	env := newAdminEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/events", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdmin_ContentLifecycle(t *testing.T) {
	env := newAdminEnv(t)

	w, resp := env.do(t, http.MethodPost, "/admin/categories",
		`{"default_language":"en","is_global":true,"translations":{"en":{"title":"Travel"}}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	categoryID := createdID(t, resp, "category")

	w, resp = env.do(t, http.MethodPost, "/admin/authors",
		`{"default_language":"en","is_global":true,"name":"Jane Doe","translations":{"en":{"title":"Jane Doe"}}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	authorID := createdID(t, resp, "author")

	w, resp = env.do(t, http.MethodPost, "/admin/articles", fmt.Sprintf(
		`{"default_language":"en","is_global":true,"category_id":%d,"author_id":%d,
		  "translations":{"en":{"title":"Paris Guide","body":"# Paris"}}}`, categoryID, authorID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	articleID := createdID(t, resp, "article")

	t.Run("validation", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/admin/articles",
			`{"default_language":"en","translations":{"en":{"title":"x"}}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		fields, ok := resp["fields"].(map[string]any)
		require.True(t, ok, "no fields: %v", resp)
		assert.Contains(t, fields, "category_id")
	})

	t.Run("unknown field", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, "/admin/categories", `{"bogus":1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("variants", func(t *testing.T) {
		target := fmt.Sprintf("/admin/entities/%d/variants/fr", articleID)
		w, _ := env.do(t, http.MethodPut, target, `{"title":"Guide de Paris"}`)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w, _ = env.do(t, http.MethodDelete, target, "")
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = env.do(t, http.MethodDelete, target, "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/admin/entities/%d/variants/en", articleID), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = env.do(t, http.MethodPut, fmt.Sprintf("/admin/entities/%d/variants/xx", articleID), `{"title":"?"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("publish", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, fmt.Sprintf("/admin/entities/%d/unpublish", articleID), "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, resp["published"])

		w, _ = env.do(t, http.MethodPost, "/admin/entities/9999/publish", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = env.do(t, http.MethodPost, "/admin/entities/abc/publish", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w, _ := env.do(t, http.MethodDelete, fmt.Sprintf("/admin/categories/%d", categoryID), "")
		assert.Equal(t, http.StatusConflict, w.Code)

		w, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/admin/articles/%d", articleID), "")
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/admin/categories/%d", categoryID), "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("events", func(t *testing.T) {
		w, resp := env.do(t, http.MethodGet, "/admin/events", "")
		require.Equal(t, http.StatusOK, w.Code)
		events, ok := resp["events"].([]any)
		require.True(t, ok, "no events: %v", resp)

		var messages []string
		for _, e := range events {
			messages = append(messages, e.(map[string]any)["message"].(string))
		}
		assert.Contains(t, messages, "Article created")
		assert.Contains(t, messages, "Category deleted")
		assert.Equal(t, false, resp["has_more"])
	})
}

func TestAdmin_Ads(t *testing.T) {
	env := newAdminEnv(t)

	w, resp := env.do(t, http.MethodPost, "/admin/ads",
		`{"name":"Rail pass","type":"banner","placement":"sidebar","default_language":"en",
		  "translations":{"en":{"title":"Ride the rails"}},"click_url":"https://example.com/rail"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := createdID(t, resp, "ad")

	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/admin/ads/%d", id), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["ctr"])

	w, _ = env.do(t, http.MethodPut, fmt.Sprintf("/admin/ads/%d/status", id), `{"status":"paused"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodPut, fmt.Sprintf("/admin/ads/%d/status", id), `{"status":"gone"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/admin/ads/9999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPost, "/admin/ads", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_Regions(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()

	reg, err := env.regions.Registry(ctx)
	require.NoError(t, err)
	_, ok := reg.FindRegion("FR")
	require.True(t, ok)

	w, _ := env.do(t, http.MethodPut, "/admin/regions/fr/active", `{"active":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	reg, err = env.regions.Registry(ctx)
	require.NoError(t, err)
	_, ok = reg.FindRegion("FR")
	assert.False(t, ok, "FR still active after deactivation")

	w, resp := env.do(t, http.MethodGet, "/admin/regions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["regions"], 19)

	w, _ = env.do(t, http.MethodPut, "/admin/regions/zz/active", `{"active":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPost, "/admin/regions/reload", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin_Scheduler(t *testing.T) {
	env := newAdminEnv(t)

	w, resp := env.do(t, http.MethodGet, "/admin/scheduler", "")
	require.Equal(t, http.StatusOK, w.Code)
	jobs, ok := resp["jobs"].([]any)
	require.True(t, ok)
	require.Len(t, jobs, 1)
	assert.Equal(t, "count", jobs[0].(map[string]any)["name"])

	w, _ = env.do(t, http.MethodPost, "/admin/scheduler/count/trigger", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.runs.Load())

	w, _ = env.do(t, http.MethodPost, "/admin/scheduler/missing/trigger", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPut, "/admin/scheduler/count", `{"schedule":"*/15 * * * *"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodPut, "/admin/scheduler/count", `{"schedule":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, "/admin/scheduler/count", `{"schedule":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_Cache(t *testing.T) {
	env := newAdminEnv(t)

	_, err := env.regions.Registry(context.Background())
	require.NoError(t, err)

	w, resp := env.do(t, http.MethodGet, "/admin/cache", "")
	require.Equal(t, http.StatusOK, w.Code)
	caches, ok := resp["caches"].([]any)
	require.True(t, ok)
	require.Len(t, caches, 2)
	assert.Equal(t, "regions", caches[0].(map[string]any)["name"])

	w, _ = env.do(t, http.MethodPost, "/admin/cache/clear", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, cache.Stats{}, env.regions.Stats())
}

func TestAdmin_Contact(t *testing.T) {
	env := newAdminEnv(t)
	contact := service.NewContact(env.store, testutil.TestLoggerSilent())
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"Ana", "Ben"} {
		m, err := contact.Submit(ctx, service.ContactInput{
			Name: name, Email: strings.ToLower(name) + "@example.com", Subject: "Hi", Message: "Hello",
		})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	w, resp := env.do(t, http.MethodGet, "/admin/contact/unread/count", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), resp["unread"])
	assert.Equal(t, float64(2), resp["unreplied"])

	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/admin/contact/%d", ids[0]), "")
	require.Equal(t, http.StatusOK, w.Code)
	msg, _ := resp["message"].(map[string]any)
	assert.Equal(t, true, msg["read"])

	w, resp = env.do(t, http.MethodGet, "/admin/contact?read=false", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["total"])
	assert.Len(t, resp["messages"], 1)

	w, resp = env.do(t, http.MethodPut, fmt.Sprintf("/admin/contact/%d/replied", ids[1]), "")
	require.Equal(t, http.StatusOK, w.Code)
	msg, _ = resp["message"].(map[string]any)
	assert.Equal(t, true, msg["replied"])

	w, _ = env.do(t, http.MethodPut, fmt.Sprintf("/admin/contact/%d/read", ids[1]), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = env.do(t, http.MethodGet, "/admin/contact/unread/count", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["unread"])
	assert.Equal(t, float64(1), resp["unreplied"])

	w, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/admin/contact/%d", ids[0]), "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/admin/contact/%d", ids[0]), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = env.do(t, http.MethodPut, "/admin/contact/abc/read", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_Visitors(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()

	article := int64(3)
	at := testutil.SeedTime
	for _, v := range []store.Visitor{
		{IP: "10.0.0.1", Country: "FR", ArticleID: &article, SessionID: "a", CreatedAt: at},
		{IP: "10.0.0.2", Country: "FR", SessionID: "b", CreatedAt: at.Add(time.Minute)},
		{IP: "10.0.0.3", Country: "SE", ArticleID: &article, SessionID: "c", CreatedAt: at.Add(2 * time.Minute)},
		{IP: "10.0.0.4", Country: "SE", IsBot: true, CreatedAt: at.Add(3 * time.Minute)},
		{IP: "10.0.0.5", Country: "SE", IsBot: true, CreatedAt: at.Add(4 * time.Minute)},
	} {
		require.NoError(t, env.store.CreateVisitor(ctx, &v))
	}

	w, resp := env.do(t, http.MethodGet, "/admin/visitors/top-countries", "")
	require.Equal(t, http.StatusOK, w.Code)
	countries, _ := resp["countries"].([]any)
	require.Len(t, countries, 2)
	first, _ := countries[0].(map[string]any)
	assert.Equal(t, "FR", first["country"])

	w, resp = env.do(t, http.MethodGet, "/admin/visitors/top-countries?bots=true&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	countries, _ = resp["countries"].([]any)
	require.Len(t, countries, 1)
	first, _ = countries[0].(map[string]any)
	assert.Equal(t, "SE", first["country"])

	w, resp = env.do(t, http.MethodGet, "/admin/visitors/article/3/countries", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["countries"], 2)

	w, resp = env.do(t, http.MethodGet, "/admin/visitors/recent?country=fr&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), resp["total"])
	assert.Equal(t, float64(2), resp["pages"])
	visitors, _ := resp["visitors"].([]any)
	require.Len(t, visitors, 1)
	latest, _ := visitors[0].(map[string]any)
	assert.Equal(t, "10.0.0.2", latest["ip"])

	w, _ = env.do(t, http.MethodGet, "/admin/visitors/recent?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = env.do(t, http.MethodGet, "/admin/visitors/article/x/countries", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFormatMetadata(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"{}", ""},
		{`{"path":"/article/x","error":"not found"}`, "error: not found, path: /article/x"},
		{`{"id":42,"ok":true}`, "id: 42, ok: true"},
		{`{"tags":["a","b"]}`, `tags: ["a","b"]`},
		{"not json", "not json"},
	}
	for _, tt := range tests {
		if got := formatMetadata(tt.in); got != tt.want {
			t.Errorf("formatMetadata(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
