// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content models translatable entities (articles, categories,
// authors, ads) and the lookups that serve them: slug location, translation
// fallback and regional access checks.
package content

import (
	"fmt"
	"slices"
	"strings"
)

// Variant is the rendering of an entity in one language.
// Title is the primary display field: name for categories and authors,
// headline for articles and ads.
type Variant struct {
	Slug            string            `json:"slug"`
	Title           string            `json:"title"`
	Excerpt         string            `json:"excerpt,omitempty"`
	Body            string            `json:"body,omitempty"`
	MetaTitle       string            `json:"meta_title,omitempty"`
	MetaDescription string            `json:"meta_description,omitempty"`
	Keywords        []string          `json:"keywords,omitempty"`
	Extras          map[string]string `json:"extras,omitempty"`
}

// Present reports whether the variant counts as a translation.
// An entry with an empty title is treated as absent.
func (v Variant) Present() bool {
	return strings.TrimSpace(v.Title) != ""
}

// Variants maps a language code to its variant. Keys are restricted to the
// catalog languages.
type Variants map[string]Variant

// Validate rejects language keys that are not catalog languages.
func (vs Variants) Validate(isLanguage func(string) bool) error {
	var unknown []string
	for lang := range vs {
		if !isLanguage(lang) {
			unknown = append(unknown, lang)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("%w: unknown languages %s", ErrInvalid, strings.Join(unknown, ", "))
	}
	return nil
}

// Clone returns a deep copy.
func (vs Variants) Clone() Variants {
	out := make(Variants, len(vs))
	for lang, v := range vs {
		v.Keywords = slices.Clone(v.Keywords)
		if v.Extras != nil {
			extras := make(map[string]string, len(v.Extras))
			for k, val := range v.Extras {
				extras[k] = val
			}
			v.Extras = extras
		}
		out[lang] = v
	}
	return out
}
