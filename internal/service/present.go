// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/blogify/internal/ads"
	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/logging"
)

// Localization is the language-resolved view of a translatable entity.
type Localization struct {
	Language           string   `json:"language"`
	Slug               string   `json:"slug"`
	Title              string   `json:"title"`
	Excerpt            string   `json:"excerpt,omitempty"`
	Body               string   `json:"body,omitempty"`
	MetaTitle          string   `json:"meta_title,omitempty"`
	MetaDescription    string   `json:"meta_description,omitempty"`
	Keywords           []string `json:"keywords,omitempty"`
	AvailableLanguages []string `json:"available_languages"`
	Path               string   `json:"path"`
}

// ArticleView is an article as served to readers.
type ArticleView struct {
	ID         int64  `json:"id"`
	BaseSlug   string `json:"base_slug"`
	IsGlobal   bool   `json:"is_global"`
	CategoryID int64  `json:"category_id"`
	AuthorID   int64  `json:"author_id"`
	Localization
	ImageURL    string     `json:"image_url,omitempty"`
	Tags        []string   `json:"tags"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Views       int64      `json:"views"`
	Likes       int64      `json:"likes"`
	ReadTime    string     `json:"read_time"`
	Featured    bool       `json:"featured"`
	Trending    bool       `json:"trending"`
}

// CategoryView is a category as served to readers.
type CategoryView struct {
	ID       int64  `json:"id"`
	BaseSlug string `json:"base_slug"`
	Localization
	Color     string `json:"color"`
	ImageURL  string `json:"image_url,omitempty"`
	IsPopular bool   `json:"is_popular"`
	PostCount int64  `json:"post_count"`
}

// AuthorView is an author as served to readers.
type AuthorView struct {
	ID       int64  `json:"id"`
	BaseSlug string `json:"base_slug"`
	Localization
	Name         string `json:"name"`
	Avatar       string `json:"avatar,omitempty"`
	ArticleCount int64  `json:"article_count"`
	TotalViews   int64  `json:"total_views"`
}

// AdView is an ad as served to readers.
type AdView struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Type        ads.Type      `json:"type"`
	Placement   ads.Placement `json:"placement"`
	Language    string        `json:"language"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	CTA         string        `json:"cta,omitempty"`
	ClickURL    string        `json:"click_url"`
	ImageURL    string        `json:"image_url,omitempty"`
	HTMLContent string        `json:"html_content,omitempty"`
}

// Localize resolves t in lang with default-language fallback and builds its
// public path in region.
func (c *Content) Localize(ctx context.Context, t content.Translatable, kind content.Kind, region, lang string) (Localization, error) {
	v, err := content.GetTranslation(t, lang)
	if err != nil {
		c.logger.Error("entity unavailable", "base_slug", t.Localization().BaseSlug, "error", err, "category", logging.CategoryContent)
		return Localization{}, err
	}
	reg, err := c.registry.Registry(ctx)
	if err != nil {
		return Localization{}, fmt.Errorf("loading registry: %w", err)
	}

	served := lang
	l := t.Localization()
	if pv, ok := l.Variants[lang]; !ok || !pv.Present() {
		served = l.DefaultLanguage
	}
	path, err := c.paths.EntityPath(t, region, kind.Segment(), lang)
	if err != nil {
		return Localization{}, err
	}

	return Localization{
		Language:           served,
		Slug:               v.Slug,
		Title:              v.Title,
		Excerpt:            v.Excerpt,
		Body:               v.Body,
		MetaTitle:          v.MetaTitle,
		MetaDescription:    v.MetaDescription,
		Keywords:           v.Keywords,
		AvailableLanguages: content.AvailableLanguages(t, reg.Languages()),
		Path:               path,
	}, nil
}

// PresentArticle localizes an article. Listings drop the body.
func (c *Content) PresentArticle(ctx context.Context, a *content.Article, region, lang string, withBody bool) (ArticleView, error) {
	loc, err := c.Localize(ctx, a, content.KindArticle, region, lang)
	if err != nil {
		return ArticleView{}, err
	}
	if !withBody {
		loc.Body = ""
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return ArticleView{
		ID:           a.ID,
		BaseSlug:     a.BaseSlug,
		IsGlobal:     a.Visibility.Global,
		CategoryID:   a.CategoryID,
		AuthorID:     a.AuthorID,
		Localization: loc,
		ImageURL:     a.ImageURL,
		Tags:         tags,
		PublishedAt:  a.PublishedAt,
		Views:        a.Views,
		Likes:        a.Likes,
		ReadTime:     a.ReadTime,
		Featured:     a.Featured,
		Trending:     a.Trending,
	}, nil
}

// PresentArticles localizes a listing. Articles whose default variant is
// missing are logged and skipped.
func (c *Content) PresentArticles(ctx context.Context, list []content.Article, region, lang string) []ArticleView {
	out := make([]ArticleView, 0, len(list))
	for i := range list {
		v, err := c.PresentArticle(ctx, &list[i], region, lang, false)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// PresentCategory localizes a category.
func (c *Content) PresentCategory(ctx context.Context, cat *content.Category, region, lang string) (CategoryView, error) {
	loc, err := c.Localize(ctx, cat, content.KindCategory, region, lang)
	if err != nil {
		return CategoryView{}, err
	}
	return CategoryView{
		ID:           cat.ID,
		BaseSlug:     cat.BaseSlug,
		Localization: loc,
		Color:        cat.Color,
		ImageURL:     cat.ImageURL,
		IsPopular:    cat.IsPopular,
		PostCount:    cat.PostCount,
	}, nil
}

// PresentAuthor localizes an author.
func (c *Content) PresentAuthor(ctx context.Context, au *content.Author, region, lang string) (AuthorView, error) {
	loc, err := c.Localize(ctx, au, content.KindAuthor, region, lang)
	if err != nil {
		return AuthorView{}, err
	}
	return AuthorView{
		ID:           au.ID,
		BaseSlug:     au.BaseSlug,
		Localization: loc,
		Name:         au.Name,
		Avatar:       au.Avatar,
		ArticleCount: au.ArticleCount,
		TotalViews:   au.TotalViews,
	}, nil
}

// PresentAd localizes an ad, falling back to its default language.
func PresentAd(ad ads.Ad, lang string) (AdView, error) {
	v, err := content.GetTranslation(ad, lang)
	if err != nil {
		return AdView{}, err
	}
	served := lang
	if pv, ok := ad.Variants[lang]; !ok || !pv.Present() {
		served = ad.DefaultLanguage
	}
	return AdView{
		ID:          ad.ID,
		Name:        ad.Name,
		Type:        ad.Type,
		Placement:   ad.Placement,
		Language:    served,
		Title:       v.Title,
		Description: v.Excerpt,
		CTA:         v.Extras["cta"],
		ClickURL:    ad.ClickURL,
		ImageURL:    ad.ImageURL,
		HTMLContent: ad.HTMLContent,
	}, nil
}
