// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/testutil"
)

func newResolver(t *testing.T) *locale.Resolver {
	t.Helper()
	return locale.NewResolver(
		locale.StaticProvider{Reg: testutil.SeedRegistry(t)},
		locale.Fallback{Region: "US", Language: "en"},
	)
}

// stampHandler echoes the stamped region and language.
func stampHandler(w http.ResponseWriter, r *http.Request) {
	res := GetRegion(r)
	_, _ = w.Write([]byte(res.Region + "/" + res.Language + "/" + string(res.Source)))
}

func TestRegion(t *testing.T) {
	prefs := DefaultPreferenceStore()
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(Region(newResolver(t), prefs))
		r.Get("/api/ping", stampHandler)
		r.Get("/api/{region}/ping", stampHandler)
	})

	tests := []struct {
		name   string
		path   string
		cookie string
		accept string
		want   string
	}{
		{"default", "/api/ping", "", "", "US/en/default"},
		{"path wins", "/api/fr/ping?region=DE", "IT", "es", "FR/fr/path"},
		{"query", "/api/ping?region=de", "IT", "", "DE/de/query"},
		{"cookie", "/api/ping", "it", "es", "IT/it/cookie"},
		{"accept-language", "/api/ping", "", "es-ES,en;q=0.5", "ES/es/accept-language"},
		{"invalid path falls through", "/api/zz/ping", "", "", "US/en/default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: prefs.Name, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if got := rec.Body.String(); got != tt.want {
				t.Errorf("resolved = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreferenceStore(t *testing.T) {
	prefs := PreferenceStore{Name: "region", TTL: 24 * time.Hour}

	rec := httptest.NewRecorder()
	prefs.Set(rec, httptest.NewRequest(http.MethodPost, "/", nil), "fr")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Value != "FR" || c.MaxAge != 86400 || !c.HttpOnly {
		t.Errorf("cookie = %+v", c)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	if got := prefs.Get(req); got != "FR" {
		t.Errorf("Get() = %q, want %q", got, "FR")
	}
	if got := prefs.Get(httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Errorf("Get() without cookie = %q, want empty", got)
	}
}

type fakeEntities struct {
	entities []*content.Entity
}

func (f *fakeEntities) FindByBaseSlug(_ context.Context, kind content.Kind, slug string) (*content.Entity, error) {
	for _, e := range f.entities {
		if e.Kind == kind && e.BaseSlug == slug {
			return e, nil
		}
	}
	return nil, content.ErrNotFound
}

func (f *fakeEntities) FindBySlugAcrossLanguages(_ context.Context, kind content.Kind, candidates []content.SlugCandidate) (*content.Entity, error) {
	for _, c := range candidates {
		for _, e := range f.entities {
			if v, ok := e.Variants[c.Language]; ok && e.Kind == kind && v.Slug == c.Slug {
				return e, nil
			}
		}
	}
	return nil, content.ErrNotFound
}

func (f *fakeEntities) FindSiblingByBaseSlug(context.Context, content.Kind, string, int64, func(content.Visibility) bool) (*content.Entity, error) {
	return nil, content.ErrNotFound
}

func (f *fakeEntities) IncrementCounter(context.Context, content.Kind, int64, string) error {
	return nil
}

func TestLegacyRedirects(t *testing.T) {
	store := &fakeEntities{entities: []*content.Entity{
		{
			ID:   1,
			Kind: content.KindArticle,
			Localized: content.Localized{
				BaseSlug:        "fjords",
				DefaultLanguage: "en",
				Variants: content.Variants{
					"en": {Title: "Fjords", Slug: "fjords-of-norway"},
					"fr": {Title: "Fjords", Slug: "les-fjords"},
				},
			},
			Visibility: content.GlobalVisibility(),
			Published:  true,
		},
		{
			ID:   2,
			Kind: content.KindCategory,
			Localized: content.Localized{
				BaseSlug:        "travel",
				DefaultLanguage: "en",
				Variants:        content.Variants{"en": {Title: "Travel", Slug: "travel"}},
			},
			Visibility: content.GlobalVisibility(),
			Published:  true,
		},
	}}
	locator := content.NewLocator(store, locale.StaticProvider{Reg: testutil.SeedRegistry(t)})
	paths := content.Paths{DefaultRegion: "US"}

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := LegacyRedirects(locator, paths, testutil.TestLoggerSilent())(next)

	tests := []struct {
		name     string
		method   string
		path     string
		region   string
		wantCode int
		wantLoc  string
	}{
		{"base slug in default region", http.MethodGet, "/article/fjords", "", http.StatusMovedPermanently, "/article/fjords-of-norway"},
		{"variant slug keeps query", http.MethodGet, "/article/les-fjords?utm=mail", "FR", http.StatusMovedPermanently, "/fr/article/fjords-of-norway?utm=mail"},
		{"head", http.MethodHead, "/article/fjords", "NO", http.StatusMovedPermanently, "/no/article/fjords-of-norway"},
		{"target equals path", http.MethodGet, "/category/travel", "US", http.StatusTeapot, ""},
		{"category in region", http.MethodGet, "/category/travel", "DE", http.StatusMovedPermanently, "/de/category/travel"},
		{"unknown slug", http.MethodGet, "/article/missing", "", http.StatusTeapot, ""},
		{"post", http.MethodPost, "/article/fjords", "", http.StatusTeapot, ""},
		{"nested path", http.MethodGet, "/article/fjords/comments", "", http.StatusTeapot, ""},
		{"unknown segment", http.MethodGet, "/tag/fjords", "", http.StatusTeapot, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.region != "" {
				req = req.WithContext(locale.WithResolved(req.Context(), locale.Resolved{Region: tt.region}))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLoc {
				t.Errorf("Location = %q, want %q", got, tt.wantLoc)
			}
		})
	}
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewGlobalRateLimiter(0.001, 2)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/ads/1/click", nil)
		req.RemoteAddr = "198.51.100.4:1000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	want := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d status = %d, want %d", i, codes[i], want[i])
		}
	}

	other := httptest.NewRequest(http.MethodPost, "/api/ads/1/click", nil)
	other.RemoteAddr = "198.51.100.5:1000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusNoContent {
		t.Errorf("other client status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rl.cache.size() != 2 {
		t.Errorf("limiters = %d, want 2", rl.cache.size())
	}
}

func TestAdminToken(t *testing.T) {
	h := AdminToken("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer s3cret", http.StatusNoContent},
		{"scheme case", "bearer s3cret", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAdminToken_EmptyRejects(t *testing.T) {
	h := AdminToken("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/events", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
