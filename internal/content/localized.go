// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"fmt"

	"github.com/olegiv/blogify/internal/util"
)

// Localized is the translatable part shared by every content type.
type Localized struct {
	BaseSlug        string   `json:"base_slug"`
	DefaultLanguage string   `json:"default_language"`
	Variants        Variants `json:"translations"`
}

// Translatable is implemented by every content type that carries variants.
type Translatable interface {
	Localization() Localized
}

// Localization implements Translatable; types embedding Localized get it for free.
func (l Localized) Localization() Localized {
	return l
}

// Validate checks the creation invariants: a valid base slug, a present
// default-language variant and only catalog languages as keys.
func (l Localized) Validate(isLanguage func(string) bool) error {
	if !util.IsValidSlug(l.BaseSlug) {
		return fmt.Errorf("%w: base slug %q is not a valid slug", ErrInvalid, l.BaseSlug)
	}
	if !isLanguage(l.DefaultLanguage) {
		return fmt.Errorf("%w: default language %q is not supported", ErrInvalid, l.DefaultLanguage)
	}
	if err := l.Variants.Validate(isLanguage); err != nil {
		return err
	}
	if !l.Variants[l.DefaultLanguage].Present() {
		return fmt.Errorf("%w: missing %q variant", ErrInvalid, l.DefaultLanguage)
	}
	for lang, v := range l.Variants {
		if v.Present() && v.Slug != "" && !util.IsValidSlug(v.Slug) {
			return fmt.Errorf("%w: %s slug %q is not a valid slug", ErrInvalid, lang, v.Slug)
		}
	}
	return nil
}

// GetTranslation returns the variant for lang, or the default-language
// variant when lang has no present variant. A missing default variant is an
// integrity error.
func GetTranslation(t Translatable, lang string) (Variant, error) {
	l := t.Localization()
	if v, ok := l.Variants[lang]; ok && v.Present() {
		return v, nil
	}
	if v, ok := l.Variants[l.DefaultLanguage]; ok && v.Present() {
		return v, nil
	}
	return Variant{}, fmt.Errorf("%w: %q has no %q variant", ErrIntegrity, l.BaseSlug, l.DefaultLanguage)
}

// AvailableLanguages returns the languages with a present variant, in the
// given canonical order.
func AvailableLanguages(t Translatable, order []string) []string {
	l := t.Localization()
	var out []string
	for _, lang := range order {
		if v, ok := l.Variants[lang]; ok && v.Present() {
			out = append(out, lang)
		}
	}
	return out
}

// SlugFor returns the slug to link to for lang, following the same fallback
// as GetTranslation and finally the base slug.
func SlugFor(t Translatable, lang string) (string, error) {
	v, err := GetTranslation(t, lang)
	if err != nil {
		return "", err
	}
	if v.Slug != "" {
		return v.Slug, nil
	}
	return t.Localization().BaseSlug, nil
}
