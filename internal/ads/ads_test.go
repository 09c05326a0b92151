// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ads

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/olegiv/blogify/internal/content"
)

// fixedSource always yields the same value. Float64 maps the low 53 bits to
// [0, 1), so 1<<52 draws 0.5.
type fixedSource uint64

func (s fixedSource) Uint64() uint64 { return uint64(s) }

func draw(f float64) fixedSource {
	return fixedSource(uint64(f * (1 << 53)))
}

func int64p(v int64) *int64 { return &v }

func timep(t time.Time) *time.Time { return &t }

func activeAd(id int64, priority, position int) Ad {
	return Ad{
		ID:        id,
		Localized: content.Localized{BaseSlug: "ad", DefaultLanguage: "en", Variants: content.Variants{"en": {Title: "Ad"}}},
		Status:    StatusActive,
		Placement: PlacementSidebar,
		Priority:  priority,
		Position:  position,
		Active:    true,
	}
}

func TestMatches(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cat := int64(7)
	ctx := Context{Placement: PlacementSidebar, Region: "FR", Language: "fr", CategoryID: &cat, Now: now}

	tests := []struct {
		name   string
		mutate func(*Ad)
		want   bool
	}{
		{"untargeted active ad", func(*Ad) {}, true},
		{"inactive flag", func(a *Ad) { a.Active = false }, false},
		{"paused", func(a *Ad) { a.Status = StatusPaused }, false},
		{"draft", func(a *Ad) { a.Status = StatusDraft }, false},
		{"other placement", func(a *Ad) { a.Placement = PlacementFooter }, false},
		{"not started", func(a *Ad) { a.StartDate = timep(now.Add(time.Hour)) }, false},
		{"started", func(a *Ad) { a.StartDate = timep(now.Add(-time.Hour)) }, true},
		{"ended", func(a *Ad) { a.EndDate = timep(now.Add(-time.Minute)) }, false},
		{"within window", func(a *Ad) {
			a.StartDate = timep(now.Add(-time.Hour))
			a.EndDate = timep(now.Add(time.Hour))
		}, true},
		{"impression cap reached", func(a *Ad) { a.MaxImpressions, a.Impressions = int64p(10), 10 }, false},
		{"impression cap not reached", func(a *Ad) { a.MaxImpressions, a.Impressions = int64p(10), 9 }, true},
		{"click cap reached", func(a *Ad) { a.MaxClicks, a.Clicks = int64p(3), 5 }, false},
		{"region targeted", func(a *Ad) { a.TargetRegions = []string{"fr", "BE"} }, true},
		{"region excluded", func(a *Ad) { a.TargetRegions = []string{"US"} }, false},
		{"language targeted", func(a *Ad) { a.TargetLanguages = []string{"fr"} }, true},
		{"language excluded", func(a *Ad) { a.TargetLanguages = []string{"en", "de"} }, false},
		{"category targeted", func(a *Ad) { a.TargetCategories = []int64{7, 9} }, true},
		{"category excluded", func(a *Ad) { a.TargetCategories = []int64{9} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ad := activeAd(1, 0, 0)
			tt.mutate(&ad)
			if got := Matches(ad, ctx); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesWithoutCategory(t *testing.T) {
	ad := activeAd(1, 0, 0)
	ad.TargetCategories = []int64{9}
	if !Matches(ad, Context{Placement: PlacementSidebar, Now: time.Now()}) {
		t.Error("category targeting should not apply when no category is supplied")
	}
}

func TestSelectExcludesCappedAd(t *testing.T) {
	capped := activeAd(1, 100, 0)
	capped.MaxImpressions = int64p(10)
	capped.Impressions = 10
	other := activeAd(2, 1, 0)

	got := Select([]Ad{capped, other}, Context{Placement: PlacementSidebar, Now: time.Now()}, 5)
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("Select() = %v, want only ad 2", ids(got))
	}
}

func TestSelectOrdering(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := activeAd(1, 5, 2)
	b := activeAd(2, 5, 1)
	c := activeAd(3, 10, 9)
	d := activeAd(4, 5, 1)
	b.CreatedAt = base
	d.CreatedAt = base.Add(time.Hour)

	got := Select([]Ad{a, b, c, d}, Context{Placement: PlacementSidebar, Now: time.Now()}, 0)
	want := []int64{3, 4, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("Select() = %v, want %v", ids(got), want)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("Select()[%d] = %d, want %d (full %v)", i, got[i].ID, want[i], ids(got))
		}
	}

	if got := Select([]Ad{a, b, c, d}, Context{Placement: PlacementSidebar, Now: time.Now()}, 2); len(got) != 2 {
		t.Errorf("len(Select(limit 2)) = %d, want 2", len(got))
	}
}

func TestPickOne(t *testing.T) {
	low := activeAd(1, 1, 0)
	high := activeAd(2, 3, 0)

	tests := []struct {
		name string
		draw float64
		ads  []Ad
		want int64
	}{
		{"zero draw picks first", 0, []Ad{low, high}, 1},
		{"draw inside first weight", 0.2, []Ad{low, high}, 1},
		{"draw past first weight", 0.5, []Ad{low, high}, 2},
		{"draw near top", 0.99, []Ad{low, high}, 2},
		{"top draw skips zero-weight tail", 0.9999999, []Ad{low, high, activeAd(7, 0, 0)}, 2},
		{"uniform when all zero (low draw)", 0.1, []Ad{activeAd(5, 0, 0), activeAd(6, 0, 0)}, 5},
		{"uniform when all zero (high draw)", 0.6, []Ad{activeAd(5, 0, 0), activeAd(6, 0, 0)}, 6},
		{"single zero-priority candidate", 0.9, []Ad{activeAd(9, 0, 0)}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPicker(draw(tt.draw))
			got, ok := p.PickOne(tt.ads)
			if !ok {
				t.Fatal("PickOne() returned no ad")
			}
			if got.ID != tt.want {
				t.Errorf("PickOne() = %d, want %d", got.ID, tt.want)
			}
		})
	}
}

func TestPickOneEmpty(t *testing.T) {
	if _, ok := NewRandomPicker().PickOne(nil); ok {
		t.Error("PickOne(nil) returned an ad")
	}
}

func TestPickOneSeededIsDeterministic(t *testing.T) {
	candidates := []Ad{activeAd(1, 10, 0), activeAd(2, 20, 0), activeAd(3, 30, 0)}

	first := NewPicker(rand.NewPCG(42, 7))
	second := NewPicker(rand.NewPCG(42, 7))
	for i := 0; i < 20; i++ {
		a, _ := first.PickOne(candidates)
		b, _ := second.PickOne(candidates)
		if a.ID != b.ID {
			t.Fatalf("draw %d: %d != %d with identical seeds", i, a.ID, b.ID)
		}
	}
}

func TestAdHelpers(t *testing.T) {
	ad := activeAd(1, 0, 0)
	ad.Impressions, ad.Clicks = 200, 5
	if got := ad.CTR(); got != 2.5 {
		t.Errorf("CTR() = %v, want 2.5", got)
	}

	now := time.Now()
	if ad.Expired(now) {
		t.Error("ad without end date reported expired")
	}
	ad.EndDate = timep(now.Add(-time.Second))
	if !ad.Expired(now) {
		t.Error("ad past end date not reported expired")
	}

	v, err := content.GetTranslation(ad, "fr")
	if err != nil || v.Title != "Ad" {
		t.Errorf("GetTranslation(ad, fr) = %q, %v; want default variant", v.Title, err)
	}
}

func ids(list []Ad) []int64 {
	out := make([]int64, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}
