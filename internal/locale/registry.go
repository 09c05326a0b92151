// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package locale

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Catalog is the seeded source of truth for regions and languages.
// Languages is the canonical language ordering used everywhere a list of
// languages is presented or scanned.
type Catalog struct {
	Languages     []string `json:"languages"`
	Regions       []Region `json:"regions"`
	DefaultRegion string   `json:"default_region"`
}

// Validate reports every region that violates the catalog invariants.
func (c Catalog) Validate() error {
	known := make(map[string]bool, len(c.Languages))
	for _, l := range c.Languages {
		known[l] = true
	}
	isLanguage := func(code string) bool { return known[code] }

	var errs []error
	seen := make(map[string]bool, len(c.Regions))
	for _, r := range c.Regions {
		if seen[r.Code] {
			errs = append(errs, fmt.Errorf("%w: duplicate code %s", ErrInvalidRegion, r.Code))
			continue
		}
		seen[r.Code] = true
		if err := r.Validate(isLanguage); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Registry is an immutable, read-only snapshot of the catalog.
// It is safe for concurrent use.
type Registry struct {
	languages     []string
	languageSet   map[string]struct{}
	regions       []Region
	active        []Region
	byCode        map[string]Region
	defaultRegion Region
}

// Provider hands out the current registry snapshot.
type Provider interface {
	Registry(ctx context.Context) (*Registry, error)
}

// StaticProvider serves a fixed registry.
type StaticProvider struct {
	Reg *Registry
}

// Registry implements Provider.
func (p StaticProvider) Registry(context.Context) (*Registry, error) {
	if p.Reg == nil {
		return nil, errors.New("registry not configured")
	}
	return p.Reg, nil
}

// NewRegistry builds a registry from a catalog. Regions that break the
// catalog invariants are left out; use Catalog.Validate to report them.
// The designated default region must be present, valid and active.
func NewRegistry(c Catalog) (*Registry, error) {
	reg := &Registry{
		languages:   slices.Clone(c.Languages),
		languageSet: make(map[string]struct{}, len(c.Languages)),
		byCode:      make(map[string]Region, len(c.Regions)),
	}
	for _, l := range c.Languages {
		reg.languageSet[l] = struct{}{}
	}

	for _, r := range c.Regions {
		if _, dup := reg.byCode[r.Code]; dup {
			continue
		}
		if err := r.Validate(reg.IsLanguage); err != nil {
			continue
		}
		r.Languages = slices.Clone(r.Languages)
		reg.regions = append(reg.regions, r)
		reg.byCode[r.Code] = r
		if r.Active {
			reg.active = append(reg.active, r)
		}
	}

	def, ok := reg.byCode[NormalizeRegionCode(c.DefaultRegion)]
	if !ok || !def.Active {
		return nil, fmt.Errorf("%w: default region %q is not an active, valid region",
			ErrInvalidRegion, c.DefaultRegion)
	}
	reg.defaultRegion = def

	return reg, nil
}

// Languages returns the canonical language ordering.
func (r *Registry) Languages() []string {
	return slices.Clone(r.languages)
}

// IsLanguage reports whether code is a catalog language.
func (r *Registry) IsLanguage(code string) bool {
	_, ok := r.languageSet[code]
	return ok
}

// Regions returns every valid region, active or not, in catalog order.
func (r *Registry) Regions() []Region {
	return slices.Clone(r.regions)
}

// ActiveRegions returns the active regions in catalog order.
func (r *Registry) ActiveRegions() []Region {
	return slices.Clone(r.active)
}

// FindRegion looks up an active region by code (case-insensitive).
func (r *Registry) FindRegion(code string) (Region, bool) {
	region, ok := r.byCode[NormalizeRegionCode(code)]
	if !ok || !region.Active {
		return Region{}, false
	}
	return region, true
}

// RegionsSupporting returns the active regions that list lang, in catalog order.
func (r *Registry) RegionsSupporting(lang string) []Region {
	lang = NormalizeLanguageCode(lang)
	var out []Region
	for _, region := range r.active {
		if region.Supports(lang) {
			out = append(out, region)
		}
	}
	return out
}

// DefaultRegion returns the designated default region.
func (r *Registry) DefaultRegion() Region {
	return r.defaultRegion
}
