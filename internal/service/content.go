// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/logging"
	"github.com/olegiv/blogify/internal/store"
	"github.com/olegiv/blogify/internal/util"
)

// VariantInput is one language of an authored entity. Body is Markdown.
type VariantInput struct {
	Slug            string   `json:"slug" validate:"omitempty,max=200"`
	Title           string   `json:"title" validate:"required,max=300"`
	Excerpt         string   `json:"excerpt" validate:"max=1000"`
	Body            string   `json:"body"`
	MetaTitle       string   `json:"meta_title" validate:"max=300"`
	MetaDescription string   `json:"meta_description" validate:"max=500"`
	Keywords        []string `json:"keywords" validate:"max=30"`
}

// LocalizedInput is the translatable part of every authored entity.
type LocalizedInput struct {
	BaseSlug        string                  `json:"base_slug" validate:"omitempty,max=200"`
	DefaultLanguage string                  `json:"default_language" validate:"required,len=2"`
	Variants        map[string]VariantInput `json:"translations" validate:"required,min=1,dive"`
	Global          bool                    `json:"is_global"`
	Regions         []string                `json:"region_restrictions" validate:"dive,len=2"`
	Draft           bool                    `json:"draft"`
}

// ArticleInput creates an article.
type ArticleInput struct {
	LocalizedInput
	CategoryID  int64      `json:"category_id" validate:"required,gt=0"`
	AuthorID    int64      `json:"author_id" validate:"required,gt=0"`
	ImageURL    string     `json:"image_url" validate:"omitempty,url"`
	Tags        []string   `json:"tags" validate:"max=20"`
	PublishedAt *time.Time `json:"published_at"`
	Featured    bool       `json:"featured"`
	Trending    bool       `json:"trending"`
}

// CategoryInput creates a category.
type CategoryInput struct {
	LocalizedInput
	Color     string `json:"color" validate:"omitempty,oneof=teal coral amber violet emerald sky"`
	ImageURL  string `json:"image_url" validate:"omitempty,url"`
	IsPopular bool   `json:"is_popular"`
}

// AuthorInput creates an author.
type AuthorInput struct {
	LocalizedInput
	Name   string `json:"name" validate:"required,max=200"`
	Avatar string `json:"avatar" validate:"omitempty,url"`
}

// Content authors and presents articles, categories and authors.
type Content struct {
	store    *store.Store
	registry locale.Provider
	paths    content.Paths
	locator  *content.Locator
	gate     *content.Gate
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewContent creates the content service.
func NewContent(s *store.Store, registry locale.Provider, paths content.Paths, logger *slog.Logger) *Content {
	if logger == nil {
		logger = slog.Default()
	}
	return &Content{
		store:    s,
		registry: registry,
		paths:    paths,
		locator:  content.NewLocator(s, registry),
		gate:     content.NewGate(s),
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the time source.
func (c *Content) SetClock(now func() time.Time) {
	c.now = now
}

// Paths returns the URL builder the service presents with.
func (c *Content) Paths() content.Paths {
	return c.paths
}

// CreateArticle validates in and stores a new article.
func (c *Content) CreateArticle(ctx context.Context, in ArticleInput) (*content.Article, error) {
	if err := validateStruct(c.validate, in); err != nil {
		return nil, err
	}
	e, err := c.buildEntity(ctx, in.LocalizedInput)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.GetCategory(ctx, in.CategoryID); err != nil {
		return nil, c.referenceError("category_id", err)
	}
	if _, err := c.store.GetAuthor(ctx, in.AuthorID); err != nil {
		return nil, c.referenceError("author_id", err)
	}

	now := c.now().UTC()
	publishedAt := in.PublishedAt
	if publishedAt == nil && e.Published {
		publishedAt = &now
	}
	a := &content.Article{
		Entity:      *e,
		CategoryID:  in.CategoryID,
		AuthorID:    in.AuthorID,
		ImageURL:    in.ImageURL,
		Tags:        normalizeTags(in.Tags),
		PublishedAt: publishedAt,
		ReadTime:    ReadTime(e.Variants[e.DefaultLanguage].Body),
		Featured:    in.Featured,
		Trending:    in.Trending,
	}
	if err := c.store.CreateArticle(ctx, a, now); err != nil {
		return nil, err
	}
	c.logger.Info("article created", "id", a.ID, "base_slug", a.BaseSlug, "category", logging.CategoryContent)
	return a, nil
}

// CreateCategory validates in and stores a new category.
func (c *Content) CreateCategory(ctx context.Context, in CategoryInput) (*content.Category, error) {
	if err := validateStruct(c.validate, in); err != nil {
		return nil, err
	}
	e, err := c.buildEntity(ctx, in.LocalizedInput)
	if err != nil {
		return nil, err
	}
	color := in.Color
	if color == "" {
		color = content.CategoryColors[0]
	}
	cat := &content.Category{
		Entity:    *e,
		Color:     color,
		ImageURL:  in.ImageURL,
		IsPopular: in.IsPopular,
	}
	if err := c.store.CreateCategory(ctx, cat, c.now().UTC()); err != nil {
		return nil, err
	}
	c.logger.Info("category created", "id", cat.ID, "base_slug", cat.BaseSlug, "category", logging.CategoryContent)
	return cat, nil
}

// CreateAuthor validates in and stores a new author.
func (c *Content) CreateAuthor(ctx context.Context, in AuthorInput) (*content.Author, error) {
	if err := validateStruct(c.validate, in); err != nil {
		return nil, err
	}
	if in.BaseSlug == "" {
		in.BaseSlug = util.Slugify(in.Name)
	}
	e, err := c.buildEntity(ctx, in.LocalizedInput)
	if err != nil {
		return nil, err
	}
	au := &content.Author{
		Entity: *e,
		Name:   strings.TrimSpace(in.Name),
		Avatar: in.Avatar,
	}
	if err := c.store.CreateAuthor(ctx, au, c.now().UTC()); err != nil {
		return nil, err
	}
	c.logger.Info("author created", "id", au.ID, "base_slug", au.BaseSlug, "category", logging.CategoryContent)
	return au, nil
}

// AddVariant adds or replaces the lang variant of an entity.
func (c *Content) AddVariant(ctx context.Context, id int64, lang string, in VariantInput) (*content.Entity, error) {
	if err := validateStruct(c.validate, in); err != nil {
		return nil, err
	}
	reg, err := c.registry.Registry(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	lang = locale.NormalizeLanguageCode(lang)
	if !reg.IsLanguage(lang) {
		return nil, fieldError("language", fmt.Sprintf("%q is not a supported language", lang))
	}

	e, err := c.store.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	v, err := buildVariant(in)
	if err != nil {
		return nil, err
	}
	variants := e.Variants.Clone()
	variants[lang] = v

	if err := c.store.UpdateEntityVariants(ctx, id, variants, c.now().UTC()); err != nil {
		return nil, err
	}
	e.Variants = variants
	return e, nil
}

// RemoveVariant drops the lang variant. The default-language variant cannot
// be removed.
func (c *Content) RemoveVariant(ctx context.Context, id int64, lang string) (*content.Entity, error) {
	e, err := c.store.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	lang = locale.NormalizeLanguageCode(lang)
	if lang == e.DefaultLanguage {
		return nil, fieldError("language", "the default-language variant cannot be removed")
	}
	if _, ok := e.Variants[lang]; !ok {
		return nil, content.ErrNotFound
	}
	variants := e.Variants.Clone()
	delete(variants, lang)

	if err := c.store.UpdateEntityVariants(ctx, id, variants, c.now().UTC()); err != nil {
		return nil, err
	}
	e.Variants = variants
	return e, nil
}

// SetPublished publishes or unpublishes an entity.
func (c *Content) SetPublished(ctx context.Context, id int64, published bool) error {
	return c.store.SetEntityPublished(ctx, id, published, c.now().UTC())
}

// DeleteArticle removes an article.
func (c *Content) DeleteArticle(ctx context.Context, id int64) error {
	if _, err := c.store.GetArticle(ctx, id); err != nil {
		return err
	}
	return c.store.DeleteArticle(ctx, id)
}

// DeleteCategory removes a category that no article references.
func (c *Content) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := c.store.GetCategory(ctx, id); err != nil {
		return err
	}
	return c.store.DeleteCategory(ctx, id)
}

// DeleteAuthor removes an author that no article references.
func (c *Content) DeleteAuthor(ctx context.Context, id int64) error {
	if _, err := c.store.GetAuthor(ctx, id); err != nil {
		return err
	}
	return c.store.DeleteAuthor(ctx, id)
}

// buildEntity turns the localized input into an entity: slugs are derived
// from titles when missing and bodies are rendered to sanitized HTML.
func (c *Content) buildEntity(ctx context.Context, in LocalizedInput) (*content.Entity, error) {
	reg, err := c.registry.Registry(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}

	defaultLang := locale.NormalizeLanguageCode(in.DefaultLanguage)
	variants := make(content.Variants, len(in.Variants))
	for lang, vin := range in.Variants {
		v, err := buildVariant(vin)
		if err != nil {
			return nil, err
		}
		variants[locale.NormalizeLanguageCode(lang)] = v
	}

	baseSlug := strings.TrimSpace(in.BaseSlug)
	if baseSlug == "" {
		baseSlug = variants[defaultLang].Slug
	}

	vis := content.GlobalVisibility()
	if !in.Global {
		for _, code := range in.Regions {
			if _, ok := reg.FindRegion(code); !ok {
				return nil, fieldError("region_restrictions", fmt.Sprintf("%q is not an active region", code))
			}
		}
		vis = content.RestrictedTo(in.Regions...)
	}

	e := &content.Entity{
		Localized: content.Localized{
			BaseSlug:        baseSlug,
			DefaultLanguage: defaultLang,
			Variants:        variants,
		},
		Visibility: vis,
		Published:  !in.Draft,
	}
	if err := e.Validate(reg.IsLanguage); err != nil {
		return nil, err
	}
	return e, nil
}

func buildVariant(in VariantInput) (content.Variant, error) {
	title := strings.TrimSpace(in.Title)
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = util.Slugify(title)
	}
	body, err := RenderBody(in.Body)
	if err != nil {
		return content.Variant{}, err
	}
	return content.Variant{
		Slug:            slug,
		Title:           title,
		Excerpt:         strings.TrimSpace(in.Excerpt),
		Body:            body,
		MetaTitle:       strings.TrimSpace(in.MetaTitle),
		MetaDescription: strings.TrimSpace(in.MetaDescription),
		Keywords:        normalizeTags(in.Keywords),
	}, nil
}

func (c *Content) referenceError(field string, err error) error {
	if errors.Is(err, content.ErrNotFound) {
		return fieldError(field, "does not exist")
	}
	return err
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
