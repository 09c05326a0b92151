// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/olegiv/blogify/internal/locale"
)

// SlugCandidate is a (language, slug) pair tried against variant slugs.
type SlugCandidate struct {
	Language string
	Slug     string
}

// EntityStore is the persistence capability the locator and gate depend on.
// Lookups only see published entities and return ErrNotFound when nothing matches.
type EntityStore interface {
	FindByBaseSlug(ctx context.Context, kind Kind, slug string) (*Entity, error)
	// FindBySlugAcrossLanguages returns the entity matching the earliest candidate.
	FindBySlugAcrossLanguages(ctx context.Context, kind Kind, candidates []SlugCandidate) (*Entity, error)
	FindSiblingByBaseSlug(ctx context.Context, kind Kind, baseSlug string, excludeID int64, visible func(Visibility) bool) (*Entity, error)
	IncrementCounter(ctx context.Context, kind Kind, id int64, counter string) error
}

// Locator resolves human-facing slugs to entities regardless of which
// language the slug was generated for.
type Locator struct {
	store    EntityStore
	registry locale.Provider
}

// NewLocator creates a locator.
func NewLocator(store EntityStore, registry locale.Provider) *Locator {
	return &Locator{store: store, registry: registry}
}

// Locate finds an entity by slug. The base slug always wins, then the
// preferred language's variant slug, then any variant slug in canonical
// language order.
func (l *Locator) Locate(ctx context.Context, kind Kind, slug, preferred string) (*Entity, error) {
	if slug == "" {
		return nil, ErrNotFound
	}

	e, err := l.store.FindByBaseSlug(ctx, kind, slug)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("finding %s by base slug: %w", kind, err)
	}

	reg, err := l.registry.Registry(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}

	candidates := Candidates(slug, preferred, reg.Languages())
	e, err = l.store.FindBySlugAcrossLanguages(ctx, kind, candidates)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding %s by variant slug: %w", kind, err)
	}
	return e, nil
}

// LocateAnyLanguage finds an entity by base slug or by any variant slug,
// scanning languages in canonical order.
func (l *Locator) LocateAnyLanguage(ctx context.Context, kind Kind, slug string) (*Entity, error) {
	return l.Locate(ctx, kind, slug, "")
}

// Candidates builds the ordered candidate list for a slug: the preferred
// language first (when set), then every other language in canonical order.
func Candidates(slug, preferred string, languages []string) []SlugCandidate {
	out := make([]SlugCandidate, 0, len(languages)+1)
	if preferred != "" {
		out = append(out, SlugCandidate{Language: preferred, Slug: slug})
	}
	for _, lang := range languages {
		if lang == preferred {
			continue
		}
		out = append(out, SlugCandidate{Language: lang, Slug: slug})
	}
	return out
}
