// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"errors"
	"testing"

	"github.com/olegiv/blogify/internal/locale"
)

var testLanguages = []string{"en", "fr", "es", "de"}

func testRegistry(t *testing.T) locale.Provider {
	t.Helper()
	reg, err := locale.NewRegistry(locale.Catalog{
		Languages: testLanguages,
		Regions: []locale.Region{
			{Code: "US", Languages: []string{"en"}, DefaultLanguage: "en", Active: true},
			{Code: "FR", Languages: []string{"fr", "en"}, DefaultLanguage: "fr", Active: true},
			{Code: "ES", Languages: []string{"es", "en"}, DefaultLanguage: "es", Active: true},
		},
		DefaultRegion: "US",
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return locale.StaticProvider{Reg: reg}
}

// memStore is an in-memory EntityStore.
type memStore struct {
	entities []*Entity
	counters map[int64]map[string]int
}

func (m *memStore) FindByBaseSlug(_ context.Context, kind Kind, slug string) (*Entity, error) {
	for _, e := range m.entities {
		if e.Kind == kind && e.Published && e.BaseSlug == slug {
			return e, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindBySlugAcrossLanguages(_ context.Context, kind Kind, candidates []SlugCandidate) (*Entity, error) {
	for _, c := range candidates {
		for _, e := range m.entities {
			if e.Kind != kind || !e.Published {
				continue
			}
			if v, ok := e.Variants[c.Language]; ok && v.Present() && v.Slug == c.Slug {
				return e, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindSiblingByBaseSlug(_ context.Context, kind Kind, baseSlug string, excludeID int64, visible func(Visibility) bool) (*Entity, error) {
	for _, e := range m.entities {
		if e.Kind == kind && e.Published && e.BaseSlug == baseSlug && e.ID != excludeID && visible(e.Visibility) {
			return e, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) IncrementCounter(_ context.Context, _ Kind, id int64, counter string) error {
	if m.counters == nil {
		m.counters = make(map[int64]map[string]int)
	}
	if m.counters[id] == nil {
		m.counters[id] = make(map[string]int)
	}
	m.counters[id][counter]++
	return nil
}

func article(id int64, base string, vis Visibility, variants Variants) *Entity {
	return &Entity{
		ID:   id,
		Kind: KindArticle,
		Localized: Localized{
			BaseSlug:        base,
			DefaultLanguage: "en",
			Variants:        variants,
		},
		Visibility: vis,
		Published:  true,
	}
}

func TestGetTranslation(t *testing.T) {
	e := article(1, "post", GlobalVisibility(), Variants{
		"en": {Slug: "post-en", Title: "Hello"},
		"fr": {Slug: "post-fr", Title: "Bonjour"},
		"es": {Slug: "post-es", Title: "  "},
	})

	tests := []struct {
		lang     string
		wantSlug string
	}{
		{"fr", "post-fr"},
		{"en", "post-en"},
		{"es", "post-en"},
		{"de", "post-en"},
		{"", "post-en"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			v, err := GetTranslation(e, tt.lang)
			if err != nil {
				t.Fatalf("GetTranslation(%q) error: %v", tt.lang, err)
			}
			if v.Slug != tt.wantSlug {
				t.Errorf("GetTranslation(%q).Slug = %q, want %q", tt.lang, v.Slug, tt.wantSlug)
			}
		})
	}
}

func TestGetTranslationMissingDefault(t *testing.T) {
	e := article(1, "broken", GlobalVisibility(), Variants{
		"en": {Slug: "broken-en"},
		"fr": {Slug: "casse", Title: "Cassé"},
	})

	if v, err := GetTranslation(e, "fr"); err != nil || v.Slug != "casse" {
		t.Errorf("GetTranslation(fr) = %q, %v; want casse, nil", v.Slug, err)
	}

	_, err := GetTranslation(e, "de")
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("GetTranslation(de) error = %v, want ErrIntegrity", err)
	}
}

func TestAvailableLanguages(t *testing.T) {
	e := article(1, "post", GlobalVisibility(), Variants{
		"de": {Title: "Hallo"},
		"en": {Title: "Hello"},
		"fr": {Title: ""},
		"es": {Title: "Hola"},
	})

	got := AvailableLanguages(e, testLanguages)
	want := []string{"en", "es", "de"}
	if len(got) != len(want) {
		t.Fatalf("AvailableLanguages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AvailableLanguages()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLocalizedValidate(t *testing.T) {
	isLanguage := func(code string) bool {
		for _, l := range testLanguages {
			if l == code {
				return true
			}
		}
		return false
	}

	tests := []struct {
		name    string
		l       Localized
		wantErr bool
	}{
		{"valid", Localized{BaseSlug: "post", DefaultLanguage: "en", Variants: Variants{"en": {Slug: "post", Title: "Post"}}}, false},
		{"missing default", Localized{BaseSlug: "post", DefaultLanguage: "en", Variants: Variants{"fr": {Title: "Poste"}}}, true},
		{"empty default", Localized{BaseSlug: "post", DefaultLanguage: "en", Variants: Variants{"en": {Slug: "post"}}}, true},
		{"unknown language key", Localized{BaseSlug: "post", DefaultLanguage: "en", Variants: Variants{"en": {Title: "Post"}, "ru": {Title: "Пост"}}}, true},
		{"unsupported default language", Localized{BaseSlug: "post", DefaultLanguage: "ru", Variants: Variants{"ru": {Title: "Пост"}}}, true},
		{"bad base slug", Localized{BaseSlug: "Not A Slug", DefaultLanguage: "en", Variants: Variants{"en": {Title: "Post"}}}, true},
		{"bad variant slug", Localized{BaseSlug: "post", DefaultLanguage: "en", Variants: Variants{"en": {Slug: "bad slug", Title: "Post"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.l.Validate(isLanguage)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLocateBaseSlugWins(t *testing.T) {
	owner := article(1, "le-chat", GlobalVisibility(), Variants{"en": {Slug: "the-cat", Title: "The cat"}})
	other := article(2, "cat-story", GlobalVisibility(), Variants{
		"en": {Slug: "cat-story", Title: "Cat story"},
		"fr": {Slug: "le-chat", Title: "Le chat"},
	})
	loc := NewLocator(&memStore{entities: []*Entity{other, owner}}, testRegistry(t))

	got, err := loc.Locate(context.Background(), KindArticle, "le-chat", "fr")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got.ID != owner.ID {
		t.Errorf("Locate() = entity %d, want base-slug owner %d", got.ID, owner.ID)
	}
}

func TestLocatePreferredLanguageFirst(t *testing.T) {
	en := article(1, "a", GlobalVisibility(), Variants{"en": {Slug: "shared", Title: "A"}})
	es := article(2, "b", GlobalVisibility(), Variants{
		"en": {Slug: "b", Title: "B"},
		"es": {Slug: "shared", Title: "B es"},
	})
	loc := NewLocator(&memStore{entities: []*Entity{en, es}}, testRegistry(t))

	tests := []struct {
		preferred string
		wantID    int64
	}{
		{"es", 2},
		{"en", 1},
		{"fr", 1},
	}

	for _, tt := range tests {
		t.Run(tt.preferred, func(t *testing.T) {
			got, err := loc.Locate(context.Background(), KindArticle, "shared", tt.preferred)
			if err != nil {
				t.Fatalf("Locate: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("Locate(shared, %s) = %d, want %d", tt.preferred, got.ID, tt.wantID)
			}
		})
	}
}

func TestLocateNotFound(t *testing.T) {
	hidden := article(1, "draft", GlobalVisibility(), Variants{"en": {Slug: "draft", Title: "Draft"}})
	hidden.Published = false
	loc := NewLocator(&memStore{entities: []*Entity{hidden}}, testRegistry(t))

	for _, slug := range []string{"draft", "missing", ""} {
		if _, err := loc.Locate(context.Background(), KindArticle, slug, "en"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Locate(%q) error = %v, want ErrNotFound", slug, err)
		}
	}
}

func TestLocateAnyLanguage(t *testing.T) {
	e := article(1, "my-post", GlobalVisibility(), Variants{
		"en": {Slug: "my-post-en", Title: "My post"},
		"es": {Slug: "mi-post", Title: "Mi post"},
	})
	loc := NewLocator(&memStore{entities: []*Entity{e}}, testRegistry(t))

	got, err := loc.LocateAnyLanguage(context.Background(), KindArticle, "mi-post")
	if err != nil {
		t.Fatalf("LocateAnyLanguage: %v", err)
	}
	if got.ID != 1 {
		t.Errorf("LocateAnyLanguage() = %d, want 1", got.ID)
	}
}

func TestCandidates(t *testing.T) {
	got := Candidates("x", "fr", testLanguages)
	want := []string{"fr", "en", "es", "de"}
	if len(got) != len(want) {
		t.Fatalf("Candidates() = %v, want languages %v", got, want)
	}
	for i, c := range got {
		if c.Language != want[i] || c.Slug != "x" {
			t.Errorf("Candidates()[%d] = %+v, want {%s x}", i, c, want[i])
		}
	}

	if got := Candidates("x", "", testLanguages); len(got) != len(testLanguages) {
		t.Errorf("len(Candidates(no preference)) = %d, want %d", len(got), len(testLanguages))
	}
}

func TestGateCheck(t *testing.T) {
	frOnly := article(1, "promo", RestrictedTo("FR"), Variants{"en": {Slug: "promo", Title: "Promo"}})
	global := article(2, "promo", GlobalVisibility(), Variants{"en": {Slug: "promo-world", Title: "Promo"}})
	esOnly := article(3, "sale", RestrictedTo("ES"), Variants{"en": {Slug: "sale", Title: "Sale"}})
	nowhere := article(4, "ghost", RestrictedTo(), Variants{"en": {Slug: "ghost", Title: "Ghost"}})
	ghostGlobal := article(5, "ghost", GlobalVisibility(), Variants{"en": {Slug: "ghost-global", Title: "Ghost"}})

	gate := NewGate(&memStore{entities: []*Entity{frOnly, global, esOnly, nowhere, ghostGlobal}})

	tests := []struct {
		name       string
		entity     *Entity
		region     string
		want       Decision
		wantTarget int64
	}{
		{"global is visible", global, "US", Visible, 0},
		{"member region is visible", frOnly, "FR", Visible, 0},
		{"member region is case-insensitive", frOnly, "fr", Visible, 0},
		{"non-member redirects to global sibling", frOnly, "US", Redirect, 2},
		{"non-member without sibling is forbidden", esOnly, "US", Forbidden, 0},
		{"empty restriction is forbidden even with sibling", nowhere, "US", Forbidden, 0},
		{"empty restriction is forbidden in every region", nowhere, "FR", Forbidden, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gate.Check(context.Background(), tt.entity, tt.region)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if got.Decision != tt.want {
				t.Errorf("Decision = %s, want %s", got.Decision, tt.want)
			}
			if tt.want == Redirect && (got.Target == nil || got.Target.ID != tt.wantTarget) {
				t.Errorf("Target = %v, want entity %d", got.Target, tt.wantTarget)
			}
		})
	}
}

func TestVisibilityKey(t *testing.T) {
	if got := GlobalVisibility().Key(); got != "global" {
		t.Errorf("GlobalVisibility().Key() = %q", got)
	}
	if a, b := RestrictedTo("FR", "de").Key(), RestrictedTo("DE", "FR", "FR").Key(); a != b {
		t.Errorf("Key() not order independent: %q vs %q", a, b)
	}
	if got := RestrictedTo().Key(); got != "restricted:" {
		t.Errorf("RestrictedTo().Key() = %q, want %q", got, "restricted:")
	}
}

func TestPaths(t *testing.T) {
	p := Paths{DefaultRegion: "US"}

	tests := []struct {
		region, segment, slug string
		want                  string
	}{
		{"US", "article", "my-post-en", "/article/my-post-en"},
		{"", "article", "x", "/article/x"},
		{"FR", "category", "voyage", "/fr/category/voyage"},
	}
	for _, tt := range tests {
		if got := p.Path(tt.region, tt.segment, tt.slug); got != tt.want {
			t.Errorf("Path(%q, %q, %q) = %q, want %q", tt.region, tt.segment, tt.slug, got, tt.want)
		}
	}

	api := Paths{DefaultRegion: "US", Prefix: "/api"}
	e := article(1, "base", GlobalVisibility(), Variants{
		"en": {Slug: "hello", Title: "Hello"},
		"fr": {Slug: "bonjour", Title: "Bonjour"},
	})
	got, err := api.EntityPath(e, "FR", "articles", "fr")
	if err != nil || got != "/api/fr/articles/bonjour" {
		t.Errorf("EntityPath(fr) = %q, %v", got, err)
	}
	got, err = api.EntityPath(e, "DE", "articles", "de")
	if err != nil || got != "/api/de/articles/hello" {
		t.Errorf("EntityPath(de) = %q, %v", got, err)
	}
}
