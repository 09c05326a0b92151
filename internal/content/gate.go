// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Decision is the outcome of an access check.
type Decision int

// Access decisions.
const (
	Visible Decision = iota
	Redirect
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Visible:
		return "visible"
	case Redirect:
		return "redirect"
	default:
		return "forbidden"
	}
}

// Access is the gate's verdict. Target is set for Redirect.
type Access struct {
	Decision Decision
	Target   *Entity
}

// Gate decides whether an entity is visible in a region.
type Gate struct {
	store EntityStore
}

// NewGate creates a gate.
func NewGate(store EntityStore) *Gate {
	return &Gate{store: store}
}

// Check must run before any view or analytics side effect is recorded.
// A restricted entity with an empty region set is forbidden everywhere and
// no sibling is searched.
func (g *Gate) Check(ctx context.Context, e *Entity, region string) (Access, error) {
	v := e.Visibility
	if v.Allows(region) {
		return Access{Decision: Visible}, nil
	}
	if len(v.Regions) == 0 {
		return Access{Decision: Forbidden}, nil
	}

	sibling, err := g.store.FindSiblingByBaseSlug(ctx, e.Kind, e.BaseSlug, e.ID, func(sv Visibility) bool {
		return sv.Allows(region)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Access{Decision: Forbidden}, nil
		}
		return Access{}, fmt.Errorf("finding sibling of %s %q: %w", e.Kind, e.BaseSlug, err)
	}
	return Access{Decision: Redirect, Target: sibling}, nil
}

// Paths builds public URLs. The default region has no prefix; other regions
// are prefixed with their lower-cased code.
type Paths struct {
	DefaultRegion string
	Prefix        string
}

// RegionPrefix returns "" for the default region and "/xx" otherwise.
func (p Paths) RegionPrefix(region string) string {
	if region == "" || strings.EqualFold(region, p.DefaultRegion) {
		return ""
	}
	return "/" + strings.ToLower(region)
}

// Path joins prefix, region prefix, segment and slug.
func (p Paths) Path(region, segment, slug string) string {
	return p.Prefix + p.RegionPrefix(region) + "/" + segment + "/" + slug
}

// EntityPath returns the URL of t in lang, falling back to the default
// language slug when t has no variant for lang.
func (p Paths) EntityPath(t Translatable, region, segment, lang string) (string, error) {
	slug, err := SlugFor(t, lang)
	if err != nil {
		return "", err
	}
	return p.Path(region, segment, slug), nil
}
