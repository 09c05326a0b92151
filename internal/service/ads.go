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

	"github.com/olegiv/blogify/internal/ads"
	"github.com/olegiv/blogify/internal/cache"
	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/logging"
	"github.com/olegiv/blogify/internal/metrics"
	"github.com/olegiv/blogify/internal/store"
	"github.com/olegiv/blogify/internal/util"
)

// DefaultAdLimit is the number of ads returned when the caller gives no limit.
const DefaultAdLimit = 5

const adCandidatesPrefix = "ads:placement:"

// AdVariantInput is one language of an ad creative.
type AdVariantInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	CTA         string `json:"cta" validate:"max=60"`
}

// AdInput creates an ad.
type AdInput struct {
	Name             string                    `json:"name" validate:"required,max=200"`
	Type             ads.Type                  `json:"type" validate:"required,oneof=banner native sponsored_article display"`
	Status           ads.Status                `json:"status" validate:"omitempty,oneof=draft active paused expired"`
	Placement        ads.Placement             `json:"placement" validate:"required,oneof=header sidebar footer inline between_articles article_sidebar"`
	Position         int                       `json:"position" validate:"gte=0"`
	Priority         int                       `json:"priority" validate:"gte=0,lte=100"`
	DefaultLanguage  string                    `json:"default_language" validate:"required,len=2"`
	Variants         map[string]AdVariantInput `json:"translations" validate:"required,min=1,dive"`
	TargetRegions    []string                  `json:"target_regions" validate:"dive,len=2"`
	TargetLanguages  []string                  `json:"target_languages" validate:"dive,len=2"`
	TargetCategories []int64                   `json:"target_categories" validate:"dive,gt=0"`
	StartDate        *time.Time                `json:"start_date"`
	EndDate          *time.Time                `json:"end_date"`
	ClickURL         string                    `json:"click_url" validate:"required,url"`
	ImageURL         string                    `json:"image_url" validate:"omitempty,url"`
	HTMLContent      string                    `json:"html_content"`
	MaxImpressions   *int64                    `json:"max_impressions" validate:"omitempty,gt=0"`
	MaxClicks        *int64                    `json:"max_clicks" validate:"omitempty,gt=0"`
	Inactive         bool                      `json:"inactive"`
}

// AdRecorder counts ad impressions and clicks off the request path.
type AdRecorder interface {
	TrackAdImpression(adID int64)
	TrackAdClick(adID int64)
}

// ActiveParams selects ads for a placement.
type ActiveParams struct {
	Placement  ads.Placement
	Region     string
	Language   string
	CategoryID *int64
	Limit      int
}

// Ads manages ads and selects them for visitors.
type Ads struct {
	store      *store.Store
	registry   locale.Provider
	candidates *cache.TypedCache[[]ads.Ad]
	picker     *ads.Picker
	recorder   AdRecorder
	validate   *validator.Validate
	logger     *slog.Logger
	now        func() time.Time
}

// NewAds creates the ads service. Candidate lists are cached in c for ttl, so
// edits become visible within that window.
func NewAds(s *store.Store, registry locale.Provider, c cache.Cacher, ttl time.Duration, picker *ads.Picker, recorder AdRecorder, logger *slog.Logger) *Ads {
	if logger == nil {
		logger = slog.Default()
	}
	if picker == nil {
		picker = ads.NewRandomPicker()
	}
	return &Ads{
		store:      s,
		registry:   registry,
		candidates: cache.NewTypedCache[[]ads.Ad](c, ttl),
		picker:     picker,
		recorder:   recorder,
		validate:   newValidator(),
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock overrides the time source.
func (s *Ads) SetClock(now func() time.Time) {
	s.now = now
}

// CreateAd validates in and stores a new ad.
func (s *Ads) CreateAd(ctx context.Context, in AdInput) (*ads.Ad, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, fieldError("end_date", "must not be before start_date")
	}
	reg, err := s.registry.Registry(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}

	variants := make(content.Variants, len(in.Variants))
	for lang, v := range in.Variants {
		variant := content.Variant{
			Title:   strings.TrimSpace(v.Title),
			Excerpt: strings.TrimSpace(v.Description),
		}
		if cta := strings.TrimSpace(v.CTA); cta != "" {
			variant.Extras = map[string]string{"cta": cta}
		}
		variants[locale.NormalizeLanguageCode(lang)] = variant
	}
	baseSlug := util.Slugify(in.Name)
	if baseSlug == "" {
		baseSlug = "ad"
	}
	loc := content.Localized{
		BaseSlug:        baseSlug,
		DefaultLanguage: locale.NormalizeLanguageCode(in.DefaultLanguage),
		Variants:        variants,
	}
	if err := loc.Validate(reg.IsLanguage); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = ads.StatusActive
	}
	regions := make([]string, 0, len(in.TargetRegions))
	for _, r := range in.TargetRegions {
		regions = append(regions, locale.NormalizeRegionCode(r))
	}

	ad := &ads.Ad{
		Localized:        loc,
		Name:             strings.TrimSpace(in.Name),
		Type:             in.Type,
		Status:           status,
		Placement:        in.Placement,
		Position:         in.Position,
		Priority:         in.Priority,
		TargetRegions:    regions,
		TargetLanguages:  in.TargetLanguages,
		TargetCategories: in.TargetCategories,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		ClickURL:         in.ClickURL,
		ImageURL:         in.ImageURL,
		HTMLContent:      SanitizeHTML(in.HTMLContent),
		MaxImpressions:   in.MaxImpressions,
		MaxClicks:        in.MaxClicks,
		Active:           !in.Inactive,
	}
	if err := s.store.CreateAd(ctx, ad, s.now().UTC()); err != nil {
		return nil, err
	}
	s.invalidate(ctx, ad.Placement)
	s.logger.Info("ad created", "id", ad.ID, "placement", ad.Placement, "category", logging.CategoryAds)
	return ad, nil
}

// Get returns an ad by id.
func (s *Ads) Get(ctx context.Context, id int64) (*ads.Ad, error) {
	ad, err := s.store.GetAd(ctx, id)
	if err != nil {
		return nil, s.notFound(err)
	}
	return ad, nil
}

// SetStatus changes an ad's lifecycle status.
func (s *Ads) SetStatus(ctx context.Context, id int64, status ads.Status) error {
	switch status {
	case ads.StatusDraft, ads.StatusActive, ads.StatusPaused, ads.StatusExpired:
	default:
		return fieldError("status", fmt.Sprintf("unknown status %q", status))
	}
	ad, err := s.store.GetAd(ctx, id)
	if err != nil {
		return s.notFound(err)
	}
	if err := s.store.UpdateAdStatus(ctx, id, status, s.now().UTC()); err != nil {
		return err
	}
	s.invalidate(ctx, ad.Placement)
	return nil
}

// Active returns the ads eligible for p, best first.
func (s *Ads) Active(ctx context.Context, p ActiveParams) ([]ads.Ad, error) {
	candidates, err := s.candidatesFor(ctx, p.Placement)
	if err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultAdLimit
	}
	selected := ads.Select(candidates, s.context(p), limit)
	metrics.AdSelections.WithLabelValues(string(p.Placement)).Inc()
	return selected, nil
}

// Rotate draws one eligible ad for p, weighted by priority.
func (s *Ads) Rotate(ctx context.Context, p ActiveParams) (ads.Ad, bool, error) {
	candidates, err := s.candidatesFor(ctx, p.Placement)
	if err != nil {
		return ads.Ad{}, false, err
	}
	eligible := ads.Select(candidates, s.context(p), 0)
	ad, ok := s.picker.PickOne(eligible)
	if ok {
		metrics.AdSelections.WithLabelValues(string(p.Placement)).Inc()
	}
	return ad, ok, nil
}

// RecordImpression counts an impression of an existing ad.
func (s *Ads) RecordImpression(ctx context.Context, id int64) error {
	if _, err := s.store.GetAd(ctx, id); err != nil {
		return s.notFound(err)
	}
	s.recorder.TrackAdImpression(id)
	return nil
}

// RecordClick counts a click on an existing ad and returns its click URL.
func (s *Ads) RecordClick(ctx context.Context, id int64) (string, error) {
	ad, err := s.store.GetAd(ctx, id)
	if err != nil {
		return "", s.notFound(err)
	}
	s.recorder.TrackAdClick(id)
	return ad.ClickURL, nil
}

// ExpireAds marks active ads past their end date as expired.
func (s *Ads) ExpireAds(ctx context.Context) (int, error) {
	n, err := s.store.ExpireAds(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := s.candidates.DeleteByPrefix(ctx, adCandidatesPrefix); err != nil {
			s.logger.Debug("clearing ad cache", "error", err)
		}
		s.logger.Info("ads expired", "count", n, "category", logging.CategoryAds)
	}
	return n, nil
}

func (s *Ads) context(p ActiveParams) ads.Context {
	return ads.Context{
		Placement:  p.Placement,
		Region:     p.Region,
		Language:   p.Language,
		CategoryID: p.CategoryID,
		Now:        s.now(),
	}
}

func (s *Ads) candidatesFor(ctx context.Context, placement ads.Placement) ([]ads.Ad, error) {
	list, err := s.candidates.GetOrSet(ctx, adCandidatesPrefix+string(placement), func() (*[]ads.Ad, error) {
		list, err := s.store.ListAdsByPlacement(ctx, placement)
		if err != nil {
			return nil, err
		}
		return &list, nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading ads for %s: %w", placement, err)
	}
	return s.withLiveCounters(ctx, *list)
}

// withLiveCounters copies list with fresh counters for ads that carry an
// impression or click cap. The cached snapshot is never modified.
func (s *Ads) withLiveCounters(ctx context.Context, list []ads.Ad) ([]ads.Ad, error) {
	var capped []int64
	for _, ad := range list {
		if ad.MaxImpressions != nil || ad.MaxClicks != nil {
			capped = append(capped, ad.ID)
		}
	}
	if len(capped) == 0 {
		return list, nil
	}
	counts, err := s.store.AdCounters(ctx, capped)
	if err != nil {
		return nil, err
	}
	out := make([]ads.Ad, len(list))
	copy(out, list)
	for i := range out {
		if c, ok := counts[out[i].ID]; ok {
			out[i].Impressions = c.Impressions
			out[i].Clicks = c.Clicks
		}
	}
	return out, nil
}

func (s *Ads) invalidate(ctx context.Context, placement ads.Placement) {
	if err := s.candidates.Delete(ctx, adCandidatesPrefix+string(placement)); err != nil {
		s.logger.Debug("clearing ad cache", "placement", placement, "error", err)
	}
}

func (s *Ads) notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return content.ErrNotFound
	}
	return err
}
