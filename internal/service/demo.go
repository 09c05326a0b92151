// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/olegiv/blogify/internal/ads"
	"github.com/olegiv/blogify/internal/content"
)

// SeedDemo creates a small multilingual sample site: two categories, an
// author, a global article, a pair of regional siblings and a sidebar ad.
// It does nothing when the demo category already exists.
func SeedDemo(ctx context.Context, c *Content, a *Ads) (bool, error) {
	if _, err := c.store.FindByBaseSlug(ctx, content.KindCategory, "travel"); err == nil {
		return false, nil
	} else if !errors.Is(err, content.ErrNotFound) {
		return false, err
	}

	travel, err := c.CreateCategory(ctx, CategoryInput{
		LocalizedInput: LocalizedInput{
			DefaultLanguage: "en",
			Global:          true,
			Variants: map[string]VariantInput{
				"en": {Title: "Travel", Excerpt: "Journeys across Europe and beyond"},
				"fr": {Title: "Voyage", Excerpt: "Voyages en Europe et ailleurs"},
				"de": {Title: "Reisen", Excerpt: "Reisen durch Europa und darüber hinaus"},
			},
		},
		Color:     "teal",
		IsPopular: true,
	})
	if err != nil {
		return false, fmt.Errorf("seeding category: %w", err)
	}

	food, err := c.CreateCategory(ctx, CategoryInput{
		LocalizedInput: LocalizedInput{
			DefaultLanguage: "en",
			Global:          true,
			Variants: map[string]VariantInput{
				"en": {Title: "Food"},
				"fr": {Title: "Cuisine"},
			},
		},
		Color: "coral",
	})
	if err != nil {
		return false, fmt.Errorf("seeding category: %w", err)
	}

	author, err := c.CreateAuthor(ctx, AuthorInput{
		LocalizedInput: LocalizedInput{
			DefaultLanguage: "en",
			Global:          true,
			Variants: map[string]VariantInput{
				"en": {Title: "Ingrid Berg", Excerpt: "Writes about the north."},
				"sv": {Title: "Ingrid Berg", Excerpt: "Skriver om norr."},
			},
		},
		Name: "Ingrid Berg",
	})
	if err != nil {
		return false, fmt.Errorf("seeding author: %w", err)
	}

	articles := []ArticleInput{
		{
			LocalizedInput: LocalizedInput{
				BaseSlug:        "northern-lights",
				DefaultLanguage: "en",
				Global:          true,
				Variants: map[string]VariantInput{
					"en": {Title: "Chasing the Northern Lights", Excerpt: "Where and when to see the aurora.",
						Body: "The **aurora borealis** is best seen between September and March."},
					"fr": {Title: "À la poursuite des aurores boréales", Excerpt: "Où et quand voir les aurores.",
						Body: "Les **aurores boréales** se voient surtout entre septembre et mars."},
					"sv": {Title: "På jakt efter norrskenet",
						Body: "**Norrskenet** syns bäst mellan september och mars."},
				},
			},
			CategoryID: travel.ID,
			AuthorID:   author.ID,
			Tags:       []string{"nordics", "aurora"},
			Featured:   true,
		},
		{
			LocalizedInput: LocalizedInput{
				BaseSlug:        "holiday-markets",
				DefaultLanguage: "de",
				Regions:         []string{"DE", "AT", "CH"},
				Variants: map[string]VariantInput{
					"de": {Title: "Weihnachtsmärkte im Alpenraum", Body: "Glühwein, Lebkuchen und Lichter."},
					"en": {Title: "Alpine Holiday Markets", Body: "Mulled wine, gingerbread and lights."},
				},
			},
			CategoryID: food.ID,
			AuthorID:   author.ID,
			Tags:       []string{"winter"},
		},
		{
			LocalizedInput: LocalizedInput{
				BaseSlug:        "holiday-markets",
				DefaultLanguage: "fr",
				Regions:         []string{"FR", "BE", "LU"},
				Variants: map[string]VariantInput{
					"fr": {Title: "Marchés de Noël en Alsace", Body: "Vin chaud, pain d'épices et lumières."},
					"en": {Title: "Holiday Markets in Alsace", Slug: "alsace-holiday-markets", Body: "Mulled wine and lights."},
				},
			},
			CategoryID: food.ID,
			AuthorID:   author.ID,
			Tags:       []string{"winter"},
		},
	}
	for _, in := range articles {
		if _, err := c.CreateArticle(ctx, in); err != nil {
			return false, fmt.Errorf("seeding article %q: %w", in.BaseSlug, err)
		}
	}

	if a != nil {
		_, err := a.CreateAd(ctx, AdInput{
			Name:            "Nordic rail pass",
			Type:            ads.TypeNative,
			Placement:       ads.PlacementSidebar,
			Priority:        10,
			DefaultLanguage: "en",
			Variants: map[string]AdVariantInput{
				"en": {Title: "See the north by train", CTA: "Book now"},
				"sv": {Title: "Upptäck norr med tåg", CTA: "Boka nu"},
			},
			TargetRegions: []string{"SE", "NO", "FI", "DK"},
			ClickURL:      "https://example.com/rail-pass",
		})
		if err != nil {
			return false, fmt.Errorf("seeding ad: %w", err)
		}
	}
	return true, nil
}
