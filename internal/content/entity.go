// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Errors returned by content lookups.
var (
	ErrNotFound  = errors.New("content not found")
	ErrForbidden = errors.New("content not available in this region")
	ErrIntegrity = errors.New("entity unavailable")
	ErrInvalid   = errors.New("invalid content")
	ErrInUse     = errors.New("content is referenced by other entities")
)

// Kind identifies the content type of an entity.
type Kind string

// Content kinds.
const (
	KindArticle  Kind = "article"
	KindCategory Kind = "category"
	KindAuthor   Kind = "author"
)

// Segment returns the URL path segment used for the kind.
func (k Kind) Segment() string {
	return string(k)
}

// Kinds lists every entity kind.
var Kinds = []Kind{KindArticle, KindCategory, KindAuthor}

// Visibility describes where an entity may be shown.
// A restricted visibility with no regions allows nothing.
type Visibility struct {
	Global  bool     `json:"is_global"`
	Regions []string `json:"region_restrictions"`
}

// GlobalVisibility is visible in every active region.
func GlobalVisibility() Visibility {
	return Visibility{Global: true}
}

// RestrictedTo limits visibility to the given region codes.
func RestrictedTo(regions ...string) Visibility {
	codes := make([]string, 0, len(regions))
	for _, r := range regions {
		codes = append(codes, strings.ToUpper(r))
	}
	return Visibility{Regions: codes}
}

// Allows reports whether the entity is visible in region.
func (v Visibility) Allows(region string) bool {
	if v.Global {
		return true
	}
	return slices.Contains(v.Regions, strings.ToUpper(region))
}

// Key is a stable identifier for the visibility, used to keep base slugs
// unique per kind and visibility while letting regional siblings share one.
func (v Visibility) Key() string {
	if v.Global {
		return "global"
	}
	codes := slices.Clone(v.Regions)
	slices.Sort(codes)
	codes = slices.Compact(codes)
	return "restricted:" + strings.Join(codes, ",")
}

// Entity is a stored translatable document.
type Entity struct {
	ID   int64 `json:"id"`
	Kind Kind  `json:"kind"`
	Localized
	Visibility Visibility `json:"visibility"`
	Published  bool       `json:"published"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Article is a published post.
type Article struct {
	Entity
	CategoryID  int64      `json:"category_id"`
	AuthorID    int64      `json:"author_id"`
	ImageURL    string     `json:"image_url,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Views       int64      `json:"views"`
	Likes       int64      `json:"likes"`
	ReadTime    string     `json:"read_time"`
	Featured    bool       `json:"featured"`
	Trending    bool       `json:"trending"`
}

// Category colours offered to editors.
var CategoryColors = []string{"teal", "coral", "amber", "violet", "emerald", "sky"}

// Category groups articles.
type Category struct {
	Entity
	Color     string `json:"color"`
	ImageURL  string `json:"image_url,omitempty"`
	IsPopular bool   `json:"is_popular"`
	PostCount int64  `json:"post_count"`
}

// Author writes articles.
type Author struct {
	Entity
	Name         string `json:"name"`
	Avatar       string `json:"avatar,omitempty"`
	ArticleCount int64  `json:"article_count"`
	TotalViews   int64  `json:"total_views"`
}
