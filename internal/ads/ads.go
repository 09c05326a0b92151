// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ads selects promotional entities for a placement given the
// visitor's region, language and category.
package ads

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/blogify/internal/content"
)

// Status is the lifecycle state of an ad.
type Status string

// Ad statuses.
const (
	StatusDraft   Status = "draft"
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusExpired Status = "expired"
)

// Type is the creative format.
type Type string

// Ad types.
const (
	TypeBanner           Type = "banner"
	TypeNative           Type = "native"
	TypeSponsoredArticle Type = "sponsored_article"
	TypeDisplay          Type = "display"
)

// Placement is the page slot an ad is shown in.
type Placement string

// Placements.
const (
	PlacementHeader          Placement = "header"
	PlacementSidebar         Placement = "sidebar"
	PlacementFooter          Placement = "footer"
	PlacementInline          Placement = "inline"
	PlacementBetweenArticles Placement = "between_articles"
	PlacementArticleSidebar  Placement = "article_sidebar"
)

// Valid reports whether p is a known placement.
func (p Placement) Valid() bool {
	switch p {
	case PlacementHeader, PlacementSidebar, PlacementFooter, PlacementInline,
		PlacementBetweenArticles, PlacementArticleSidebar:
		return true
	}
	return false
}

// Ad is a targeted promotional entity.
type Ad struct {
	ID int64 `json:"id"`
	content.Localized
	Name             string     `json:"name"`
	Type             Type       `json:"type"`
	Status           Status     `json:"status"`
	Placement        Placement  `json:"placement"`
	Position         int        `json:"position"`
	Priority         int        `json:"priority"`
	TargetRegions    []string   `json:"target_regions,omitempty"`
	TargetLanguages  []string   `json:"target_languages,omitempty"`
	TargetCategories []int64    `json:"target_categories,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	ClickURL         string     `json:"click_url"`
	ImageURL         string     `json:"image_url,omitempty"`
	HTMLContent      string     `json:"html_content,omitempty"`
	Impressions      int64      `json:"impressions"`
	Clicks           int64      `json:"clicks"`
	MaxImpressions   *int64     `json:"max_impressions,omitempty"`
	MaxClicks        *int64     `json:"max_clicks,omitempty"`
	Active           bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CTR returns the click-through rate in percent.
func (a Ad) CTR() float64 {
	if a.Impressions == 0 {
		return 0
	}
	return float64(a.Clicks) / float64(a.Impressions) * 100
}

// Expired reports whether the ad's end date lies before now.
func (a Ad) Expired(now time.Time) bool {
	return a.EndDate != nil && a.EndDate.Before(now)
}

// Context is the read-only snapshot a selection is made against.
type Context struct {
	Placement  Placement
	Region     string
	Language   string
	CategoryID *int64
	Now        time.Time
}

// Matches reports whether ad is eligible in c.
// Empty targeting sets match everything.
func Matches(ad Ad, c Context) bool {
	if !ad.Active || ad.Status != StatusActive {
		return false
	}
	if c.Placement != "" && ad.Placement != c.Placement {
		return false
	}
	if ad.StartDate != nil && c.Now.Before(*ad.StartDate) {
		return false
	}
	if ad.EndDate != nil && c.Now.After(*ad.EndDate) {
		return false
	}
	if ad.MaxImpressions != nil && ad.Impressions >= *ad.MaxImpressions {
		return false
	}
	if ad.MaxClicks != nil && ad.Clicks >= *ad.MaxClicks {
		return false
	}
	if len(ad.TargetRegions) > 0 && !slices.ContainsFunc(ad.TargetRegions, func(r string) bool {
		return strings.EqualFold(r, c.Region)
	}) {
		return false
	}
	if len(ad.TargetLanguages) > 0 && !slices.Contains(ad.TargetLanguages, c.Language) {
		return false
	}
	if c.CategoryID != nil && len(ad.TargetCategories) > 0 && !slices.Contains(ad.TargetCategories, *c.CategoryID) {
		return false
	}
	return true
}

// Select filters candidates and orders them by priority (high first),
// position (low first) and creation time (newest first), keeping at most
// limit ads. A limit <= 0 keeps all.
func Select(candidates []Ad, c Context, limit int) []Ad {
	out := make([]Ad, 0, len(candidates))
	for _, ad := range candidates {
		if Matches(ad, c) {
			out = append(out, ad)
		}
	}

	slices.SortStableFunc(out, func(a, b Ad) int {
		if n := cmp.Compare(b.Priority, a.Priority); n != 0 {
			return n
		}
		if n := cmp.Compare(a.Position, b.Position); n != 0 {
			return n
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Picker draws one ad for rotation, weighted by priority.
// It is safe for concurrent use.
type Picker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPicker creates a picker drawing from src. Pass a seeded source in tests.
func NewPicker(src rand.Source) *Picker {
	return &Picker{rnd: rand.New(src)}
}

// NewRandomPicker creates a picker with a randomly seeded source.
func NewRandomPicker() *Picker {
	return NewPicker(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// PickOne returns one ad. A single candidate is returned directly; when every
// priority is zero the draw is uniform; otherwise a value is drawn in
// [0, total) and each weight is subtracted in order until it is non-positive.
// If rounding leaves the draw unspent, the first candidate is returned.
func (p *Picker) PickOne(candidates []Ad) (Ad, bool) {
	switch len(candidates) {
	case 0:
		return Ad{}, false
	case 1:
		return candidates[0], true
	}

	total := 0
	for _, ad := range candidates {
		total += max(ad.Priority, 0)
	}

	p.mu.Lock()
	draw := p.rnd.Float64()
	p.mu.Unlock()

	if total == 0 {
		return candidates[int(draw*float64(len(candidates)))], true
	}

	remaining := draw * float64(total)
	for _, ad := range candidates {
		remaining -= float64(max(ad.Priority, 0))
		if remaining <= 0 {
			return ad, true
		}
	}
	return candidates[0], true
}
