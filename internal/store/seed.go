// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/blogify/internal/locale"
)

// SeedLanguages is the canonical language ordering.
var SeedLanguages = []Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "it", Name: "Italian", NativeName: "Italiano"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português"},
	{Code: "sv", Name: "Swedish", NativeName: "Svenska"},
	{Code: "fi", Name: "Finnish", NativeName: "Suomi"},
	{Code: "da", Name: "Danish", NativeName: "Dansk"},
	{Code: "no", Name: "Norwegian", NativeName: "Norsk"},
	{Code: "nl", Name: "Dutch", NativeName: "Nederlands"},
}

func region(code, name, currency string, langs ...string) locale.Region {
	return locale.Region{
		Code:            code,
		Name:            name,
		Languages:       langs,
		DefaultLanguage: langs[0],
		Currency:        currency,
		Active:          true,
	}
}

// SeedRegions lists the regions of a fresh installation, in display order.
var SeedRegions = []locale.Region{
	region("US", "United States", "USD", "en"),
	region("GB", "United Kingdom", "GBP", "en"),
	region("CA", "Canada", "CAD", "en", "fr"),
	region("AU", "Australia", "AUD", "en"),
	region("FR", "France", "EUR", "fr", "en"),
	region("DE", "Germany", "EUR", "de", "en"),
	region("ES", "Spain", "EUR", "es", "en"),
	region("IT", "Italy", "EUR", "it", "en"),
	region("PT", "Portugal", "EUR", "pt", "en"),
	region("SE", "Sweden", "SEK", "sv", "en"),
	region("NO", "Norway", "NOK", "no", "en"),
	region("DK", "Denmark", "DKK", "da", "en"),
	region("FI", "Finland", "EUR", "fi", "sv", "en"),
	region("BE", "Belgium", "EUR", "nl", "fr", "de", "en"),
	region("NL", "Netherlands", "EUR", "nl", "en"),
	region("IE", "Ireland", "EUR", "en"),
	region("LU", "Luxembourg", "EUR", "fr", "de", "en"),
	region("CH", "Switzerland", "CHF", "de", "fr", "it", "en"),
	region("AT", "Austria", "EUR", "de", "en"),
}

// Seed inserts the language catalog and regions when the regions table is
// empty. It reports whether anything was written.
func (s *Store) Seed(ctx context.Context, now time.Time) (bool, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM regions`).Scan(&n); err != nil {
		return false, fmt.Errorf("counting regions: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	err := s.ExecTx(ctx, func(q *Queries) error {
		for i, l := range SeedLanguages {
			l.Position = i
			if err := q.UpsertLanguage(ctx, l); err != nil {
				return err
			}
		}
		for i, r := range SeedRegions {
			if err := q.UpsertRegion(ctx, r, i, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
