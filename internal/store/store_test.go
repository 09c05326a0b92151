// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blogify/internal/ads"
	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/locale"
	"github.com/olegiv/blogify/internal/store"
	"github.com/olegiv/blogify/internal/testutil"
)

var now = testutil.SeedTime.Add(time.Hour)

type fixture struct {
	s        *store.Store
	category *content.Category
	author   *content.Author
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := testutil.SeededStore(t)

	cat := &content.Category{
		Entity: content.Entity{
			Localized: content.Localized{
				BaseSlug:        "travel",
				DefaultLanguage: "en",
				Variants: content.Variants{
					"en": {Title: "Travel", Slug: "travel"},
					"fr": {Title: "Voyage", Slug: "voyage"},
				},
			},
			Visibility: content.GlobalVisibility(),
			Published:  true,
		},
		Color: "teal",
	}
	require.NoError(t, s.CreateCategory(ctx, cat, now))

	au := &content.Author{
		Entity: content.Entity{
			Localized: content.Localized{
				BaseSlug:        "jane-doe",
				DefaultLanguage: "en",
				Variants:        content.Variants{"en": {Title: "Jane Doe"}},
			},
			Visibility: content.GlobalVisibility(),
			Published:  true,
		},
		Name: "Jane Doe",
	}
	require.NoError(t, s.CreateAuthor(ctx, au, now))

	return &fixture{s: s, category: cat, author: au}
}

func (f *fixture) article(t *testing.T, baseSlug string, vis content.Visibility, variants content.Variants, publishedAt time.Time) *content.Article {
	t.Helper()
	a := &content.Article{
		Entity: content.Entity{
			Localized: content.Localized{
				BaseSlug:        baseSlug,
				DefaultLanguage: "en",
				Variants:        variants,
			},
			Visibility: vis,
			Published:  true,
		},
		CategoryID:  f.category.ID,
		AuthorID:    f.author.ID,
		Tags:        []string{"europe"},
		PublishedAt: &publishedAt,
		ReadTime:    "1 min read",
	}
	require.NoError(t, f.s.CreateArticle(context.Background(), a, now))
	return a
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := testutil.SeededStore(t)

	wrote, err := s.Seed(ctx, now)
	require.NoError(t, err)
	assert.False(t, wrote)

	regions, err := s.ListRegions(ctx)
	require.NoError(t, err)
	require.Len(t, regions, len(store.SeedRegions))
	assert.Equal(t, "US", regions[0].Code)
	assert.Equal(t, "AT", regions[len(regions)-1].Code)

	ch, err := s.GetRegion(ctx, "CH")
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "fr", "it", "en"}, ch.Languages)
	assert.Equal(t, "CHF", ch.Currency)
	assert.True(t, ch.Active)

	_, err = s.GetRegion(ctx, "ZZ")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadCatalogBuildsRegistry(t *testing.T) {
	ctx := context.Background()
	s := testutil.SeededStore(t)
	require.NoError(t, s.SetRegionActive(ctx, "NO", false, now))

	c, err := s.LoadCatalog(ctx, "US")
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"en", "fr", "es", "de", "it", "pt", "sv", "fi", "da", "no", "nl"}, c.Languages)

	reg, err := locale.NewRegistry(c)
	require.NoError(t, err)
	assert.Len(t, reg.Regions(), 19)
	assert.Len(t, reg.ActiveRegions(), 18)
	_, ok := reg.FindRegion("NO")
	assert.False(t, ok, "inactive region must not be found")
	assert.Equal(t, "US", reg.DefaultRegion().Code)
}

func TestEntityLookups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	global := f.article(t, "paris-guide", content.GlobalVisibility(), content.Variants{
		"en": {Title: "Paris guide", Slug: "paris-guide"},
		"fr": {Title: "Guide de Paris", Slug: "guide-de-paris"},
	}, now)
	regional := f.article(t, "paris-guide", content.RestrictedTo("FR"), content.Variants{
		"en": {Title: "Paris guide (FR)", Slug: "paris-guide-fr"},
		"fr": {Title: "Guide de Paris (FR)", Slug: "guide-paris-fr"},
	}, now)

	t.Run("base slug prefers global entity", func(t *testing.T) {
		e, err := f.s.FindByBaseSlug(ctx, content.KindArticle, "paris-guide")
		require.NoError(t, err)
		assert.Equal(t, global.ID, e.ID)
		assert.True(t, e.Visibility.Global)
		assert.Equal(t, "Guide de Paris", e.Variants["fr"].Title)
	})

	t.Run("base slug scoped to kind", func(t *testing.T) {
		_, err := f.s.FindByBaseSlug(ctx, content.KindCategory, "paris-guide")
		assert.ErrorIs(t, err, content.ErrNotFound)
	})

	t.Run("earliest candidate wins", func(t *testing.T) {
		e, err := f.s.FindBySlugAcrossLanguages(ctx, content.KindArticle, []content.SlugCandidate{
			{Language: "en", Slug: "guide-paris-fr"},
			{Language: "fr", Slug: "guide-paris-fr"},
		})
		require.NoError(t, err)
		assert.Equal(t, regional.ID, e.ID)
		assert.Equal(t, []string{"FR"}, e.Visibility.Regions)
	})

	t.Run("no candidate matches", func(t *testing.T) {
		_, err := f.s.FindBySlugAcrossLanguages(ctx, content.KindArticle, []content.SlugCandidate{
			{Language: "en", Slug: "guide-de-paris"},
		})
		assert.ErrorIs(t, err, content.ErrNotFound)
	})

	t.Run("sibling respects predicate", func(t *testing.T) {
		e, err := f.s.FindSiblingByBaseSlug(ctx, content.KindArticle, "paris-guide", regional.ID,
			func(v content.Visibility) bool { return v.Allows("US") })
		require.NoError(t, err)
		assert.Equal(t, global.ID, e.ID)

		_, err = f.s.FindSiblingByBaseSlug(ctx, content.KindArticle, "paris-guide", global.ID,
			func(v content.Visibility) bool { return v.Allows("US") })
		assert.ErrorIs(t, err, content.ErrNotFound)
	})

	t.Run("unpublished entities are invisible", func(t *testing.T) {
		require.NoError(t, f.s.SetEntityPublished(ctx, regional.ID, false, now))
		_, err := f.s.FindBySlugAcrossLanguages(ctx, content.KindArticle, []content.SlugCandidate{
			{Language: "fr", Slug: "guide-paris-fr"},
		})
		assert.ErrorIs(t, err, content.ErrNotFound)
	})
}

func TestDuplicateBaseSlugForSameVisibility(t *testing.T) {
	f := newFixture(t)
	f.article(t, "dup", content.GlobalVisibility(), content.Variants{"en": {Title: "A", Slug: "a"}}, now)

	a := &content.Article{
		Entity: content.Entity{
			Localized: content.Localized{
				BaseSlug:        "dup",
				DefaultLanguage: "en",
				Variants:        content.Variants{"en": {Title: "B", Slug: "b"}},
			},
			Visibility: content.GlobalVisibility(),
			Published:  true,
		},
		CategoryID: f.category.ID,
		AuthorID:   f.author.ID,
	}
	err := f.s.CreateArticle(context.Background(), a, now)
	assert.ErrorIs(t, err, content.ErrInvalid)
}

func TestUpdateEntityVariantsReindexesSlugs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.article(t, "lisbon", content.GlobalVisibility(), content.Variants{"en": {Title: "Lisbon", Slug: "lisbon"}}, now)

	variants := a.Variants.Clone()
	variants["pt"] = content.Variant{Title: "Lisboa", Slug: "lisboa"}
	require.NoError(t, f.s.UpdateEntityVariants(ctx, a.ID, variants, now))

	e, err := f.s.FindBySlugAcrossLanguages(ctx, content.KindArticle, []content.SlugCandidate{
		{Language: "pt", Slug: "lisboa"},
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, e.ID)
}

func TestListArticlesFiltersByRegion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	older := now.Add(-48 * time.Hour)

	f.article(t, "global", content.GlobalVisibility(), content.Variants{"en": {Title: "Global"}}, older)
	f.article(t, "french", content.RestrictedTo("FR", "BE"), content.Variants{"en": {Title: "French"}}, now)
	f.article(t, "nowhere", content.Visibility{}, content.Variants{"en": {Title: "Nowhere"}}, now)

	fr, err := f.s.ListArticles(ctx, store.ArticleFilter{Region: "FR"})
	require.NoError(t, err)
	require.Len(t, fr, 2)
	assert.Equal(t, "french", fr[0].BaseSlug)
	assert.Equal(t, "global", fr[1].BaseSlug)
	assert.Equal(t, []string{"europe"}, fr[0].Tags)

	us, err := f.s.ListArticles(ctx, store.ArticleFilter{Region: "US"})
	require.NoError(t, err)
	require.Len(t, us, 1)
	assert.Equal(t, "global", us[0].BaseSlug)

	n, err := f.s.CountArticles(ctx, store.ArticleFilter{Region: "BE", CategoryID: f.category.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	page, err := f.s.ListArticles(ctx, store.ArticleFilter{Region: "FR", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "global", page[0].BaseSlug)
}

func TestSearchArticles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.article(t, "alps", content.GlobalVisibility(), content.Variants{
		"en": {Title: "Hiking the Alps", Excerpt: "Trails"},
		"fr": {Title: "Randonnée dans les Alpes", Body: "sentiers"},
	}, now)
	f.article(t, "fjords", content.RestrictedTo("NO"), content.Variants{
		"en": {Title: "Fjords 100% scenic"},
	}, now)

	got, err := f.s.SearchArticles(ctx, "FR", "fr", "sentiers", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = f.s.SearchArticles(ctx, "FR", "fr", "hiking", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1, "default-language variant is searched too")

	got, err = f.s.SearchArticles(ctx, "FR", "en", "fjords", 10)
	require.NoError(t, err)
	assert.Empty(t, got, "region-restricted article must not leak")

	got, err = f.s.SearchArticles(ctx, "NO", "en", "100%", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = f.s.SearchArticles(ctx, "NO", "en", "_", 10)
	require.NoError(t, err)
	assert.Empty(t, got, "wildcards are matched literally")
}

func TestCountersAndCategoryDeletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.article(t, "rome", content.GlobalVisibility(), content.Variants{"en": {Title: "Rome"}}, now)

	require.NoError(t, f.s.IncrementCounter(ctx, content.KindArticle, a.ID, store.CounterViews))
	require.NoError(t, f.s.IncrementCounter(ctx, content.KindArticle, a.ID, store.CounterViews))
	require.NoError(t, f.s.IncrementCounter(ctx, content.KindAuthor, f.author.ID, store.CounterTotalViews))
	assert.Error(t, f.s.IncrementCounter(ctx, content.KindCategory, f.category.ID, store.CounterViews))

	got, err := f.s.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	au, err := f.s.GetAuthor(ctx, f.author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), au.TotalViews)
	assert.Equal(t, int64(1), au.ArticleCount)

	cats, err := f.s.ListCategories(ctx, "US")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, int64(1), cats[0].PostCount)

	assert.ErrorIs(t, f.s.DeleteCategory(ctx, f.category.ID), content.ErrInUse)
	assert.ErrorIs(t, f.s.DeleteAuthor(ctx, f.author.ID), content.ErrInUse)

	require.NoError(t, f.s.DeleteArticle(ctx, a.ID))
	require.NoError(t, f.s.DeleteCategory(ctx, f.category.ID))
	_, err = f.s.GetCategory(ctx, f.category.ID)
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestAds(t *testing.T) {
	ctx := context.Background()
	s := testutil.SeededStore(t)

	maxImpressions := int64(100)
	yesterday := now.Add(-24 * time.Hour)
	live := &ads.Ad{
		Localized: content.Localized{
			BaseSlug: "summer-sale", DefaultLanguage: "en",
			Variants: content.Variants{"en": {Title: "Summer sale"}},
		},
		Name:           "Summer sale",
		Type:           ads.TypeBanner,
		Status:         ads.StatusActive,
		Placement:      ads.PlacementSidebar,
		Priority:       10,
		TargetRegions:  []string{"FR"},
		ClickURL:       "https://example.com/sale",
		MaxImpressions: &maxImpressions,
		Active:         true,
	}
	ended := &ads.Ad{
		Localized: content.Localized{
			BaseSlug: "spring", DefaultLanguage: "en",
			Variants: content.Variants{"en": {Title: "Spring"}},
		},
		Name:      "Spring",
		Type:      ads.TypeBanner,
		Status:    ads.StatusActive,
		Placement: ads.PlacementSidebar,
		EndDate:   &yesterday,
		ClickURL:  "https://example.com/spring",
		Active:    true,
	}
	require.NoError(t, s.CreateAd(ctx, live, now))
	require.NoError(t, s.CreateAd(ctx, ended, now))

	list, err := s.ListAdsByPlacement(ctx, ads.PlacementSidebar)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"FR"}, list[0].TargetRegions)
	require.NotNil(t, list[0].MaxImpressions)
	assert.Equal(t, int64(100), *list[0].MaxImpressions)

	require.NoError(t, s.IncrementAdCounter(ctx, live.ID, store.AdCounterImpressions))
	require.NoError(t, s.IncrementAdCounter(ctx, live.ID, store.AdCounterClicks))
	got, err := s.GetAd(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Impressions)
	assert.Equal(t, int64(1), got.Clicks)

	n, err := s.ExpireAds(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err = s.ListAdsByPlacement(ctx, ads.PlacementSidebar)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, live.ID, list[0].ID)

	_, err = s.GetAd(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVisitorStats(t *testing.T) {
	ctx := context.Background()
	s := testutil.SeededStore(t)

	for _, v := range []store.Visitor{
		{IP: "1.1.1.1", Country: "FR", Region: "FR", Device: "desktop", SessionID: "a", CreatedAt: now},
		{IP: "1.1.1.2", Country: "FR", Region: "FR", Device: "mobile", SessionID: "a", CreatedAt: now},
		{IP: "1.1.1.3", Country: "US", Region: "US", Device: "desktop", SessionID: "b", CreatedAt: now},
		{IP: "1.1.1.4", Country: "US", Region: "US", IsBot: true, CreatedAt: now},
		{IP: "1.1.1.5", Country: "DE", Region: "DE", SessionID: "c", CreatedAt: now.Add(-72 * time.Hour)},
	} {
		require.NoError(t, s.CreateVisitor(ctx, &v))
	}

	stats, err := s.GetVisitorStats(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Sessions)
	require.NotEmpty(t, stats.ByCountry)
	assert.Equal(t, store.Count{Key: "FR", Count: 2}, stats.ByCountry[0])
	assert.Equal(t, store.Count{Key: "desktop", Count: 2}, stats.ByDevice[0])
}

func TestVisitorReports(t *testing.T) {
	ctx := context.Background()
	s := testutil.SeededStore(t)

	article := int64(7)
	for _, v := range []store.Visitor{
		{IP: "1.1.1.1", Country: "FR", ArticleID: &article, SessionID: "a", CreatedAt: now.Add(-3 * time.Minute)},
		{IP: "1.1.1.2", Country: "FR", ArticleID: &article, SessionID: "a", CreatedAt: now.Add(-2 * time.Minute)},
		{IP: "1.1.1.3", Country: "US", ArticleID: &article, SessionID: "b", CreatedAt: now.Add(-time.Minute)},
		{IP: "1.1.1.4", Country: "US", SessionID: "c", CreatedAt: now},
		{IP: "1.1.1.5", Country: "US", IsBot: true, CreatedAt: now},
		{IP: "1.1.1.6", SessionID: "d", CreatedAt: now},
	} {
		require.NoError(t, s.CreateVisitor(ctx, &v))
	}

	top, err := s.TopCountries(ctx, store.VisitorFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []store.CountryCount{
		{Country: "FR", Visits: 2, Sessions: 1},
		{Country: "US", Visits: 2, Sessions: 2},
	}, top)

	withBots, err := s.TopCountries(ctx, store.VisitorFilter{IncludeBots: true, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []store.CountryCount{{Country: "US", Visits: 3, Sessions: 2}}, withBots)

	byArticle, err := s.TopCountries(ctx, store.VisitorFilter{ArticleID: &article, Limit: -1})
	require.NoError(t, err)
	assert.Equal(t, []store.CountryCount{
		{Country: "FR", Visits: 2, Sessions: 1},
		{Country: "US", Visits: 1, Sessions: 1},
	}, byArticle)

	recent, total, err := s.RecentVisitors(ctx, store.VisitorFilter{Country: "US", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, recent, 1)
	assert.Equal(t, "1.1.1.4", recent[0].IP)

	since, total, err := s.RecentVisitors(ctx, store.VisitorFilter{Since: now.Add(-90 * time.Second), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, since, 3)
}

func TestContactMessages(t *testing.T) {
	ctx := context.Background()
	s := testutil.SeededStore(t)

	first := &store.ContactMessage{Name: "Ana", Email: "ana@example.com", Subject: "Hi", Message: "Hello", CreatedAt: now.Add(-time.Hour)}
	second := &store.ContactMessage{Name: "Ben", Email: "ben@example.com", Subject: "Ads", Message: "Rates?", CreatedAt: now}
	require.NoError(t, s.CreateContactMessage(ctx, first))
	require.NoError(t, s.CreateContactMessage(ctx, second))

	counts, err := s.CountContactMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.ContactCounts{Unread: 2, Unreplied: 2}, counts)

	require.NoError(t, s.MarkContactRead(ctx, first.ID, now))
	require.NoError(t, s.MarkContactRead(ctx, first.ID, now.Add(time.Hour)))
	require.NoError(t, s.MarkContactReplied(ctx, first.ID, now))

	got, err := s.GetContactMessage(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.True(t, got.Replied)
	require.NotNil(t, got.ReadAt)
	assert.True(t, got.ReadAt.Equal(now.UTC().Truncate(time.Second)), "read_at = %v", got.ReadAt)

	unread := false
	list, total, err := s.ListContactMessages(ctx, store.ContactFilter{Read: &unread, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	all, total, err := s.ListContactMessages(ctx, store.ContactFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []int64{second.ID, first.ID}, []int64{all[0].ID, all[1].ID})

	require.NoError(t, s.DeleteContactMessage(ctx, second.ID))
	assert.ErrorIs(t, s.DeleteContactMessage(ctx, second.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.MarkContactRead(ctx, second.ID, now), store.ErrNotFound)
	_, err = s.GetContactMessage(ctx, second.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	s := testutil.SeededStore(t)

	_, err := s.CreateEvent(ctx, store.CreateEventParams{
		Level: "error", Category: "content", Message: "entity unavailable", CreatedAt: now,
	})
	require.NoError(t, err)

	events, err := s.ListEvents(ctx, store.ListEventsParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "entity unavailable", events[0].Message)
	assert.Equal(t, "{}", events[0].Metadata)
}
