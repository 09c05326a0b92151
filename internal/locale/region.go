// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package locale holds the catalog of supported regions and languages and
// resolves the (region, language) pair for an inbound request.
package locale

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidRegion is returned when a region definition breaks the catalog
// invariants (bad code, no languages, default language not supported).
var ErrInvalidRegion = errors.New("invalid region")

// Region is a market the site is published for.
type Region struct {
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	Languages       []string `json:"languages"`
	DefaultLanguage string   `json:"default_language"`
	Currency        string   `json:"currency"`
	Active          bool     `json:"active"`
}

// Supports reports whether lang is one of the region's languages.
func (r Region) Supports(lang string) bool {
	return slices.Contains(r.Languages, strings.ToLower(lang))
}

// Validate checks the region against the invariants of the catalog.
// isLanguage reports whether a code belongs to the catalog languages; nil skips that check.
func (r Region) Validate(isLanguage func(string) bool) error {
	if !IsRegionCode(r.Code) {
		return fmt.Errorf("%w: code %q must be two upper-case letters", ErrInvalidRegion, r.Code)
	}
	if len(r.Languages) == 0 {
		return fmt.Errorf("%w: %s has no supported languages", ErrInvalidRegion, r.Code)
	}
	if !r.Supports(r.DefaultLanguage) {
		return fmt.Errorf("%w: %s default language %q is not supported by the region",
			ErrInvalidRegion, r.Code, r.DefaultLanguage)
	}
	if isLanguage != nil {
		for _, lang := range r.Languages {
			if !isLanguage(lang) {
				return fmt.Errorf("%w: %s lists unknown language %q", ErrInvalidRegion, r.Code, lang)
			}
		}
	}
	return nil
}

// IsRegionCode reports whether s has the shape of a region code (e.g. "FR").
func IsRegionCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// NormalizeRegionCode trims and upper-cases a region code from user input.
func NormalizeRegionCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeLanguageCode trims and lower-cases a language code from user input.
func NormalizeLanguageCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
