// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/blogify/internal/locale"
)

// Language is a row of the language catalog.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
	Position   int    `json:"position"`
}

// UpsertLanguage inserts or updates a catalog language.
func (q *Queries) UpsertLanguage(ctx context.Context, l Language) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO languages (code, name, native_name, position) VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name, native_name = excluded.native_name, position = excluded.position`,
		l.Code, l.Name, l.NativeName, l.Position)
	if err != nil {
		return fmt.Errorf("upserting language %s: %w", l.Code, err)
	}
	return nil
}

// ListLanguages returns the catalog languages in canonical order.
func (q *Queries) ListLanguages(ctx context.Context) ([]Language, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT code, name, native_name, position FROM languages ORDER BY position, code`)
	if err != nil {
		return nil, fmt.Errorf("listing languages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Language
	for rows.Next() {
		var l Language
		if err := rows.Scan(&l.Code, &l.Name, &l.NativeName, &l.Position); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const regionColumns = `code, name, languages, default_language, currency, is_active`

func scanRegion(row rowScanner) (locale.Region, error) {
	var (
		r     locale.Region
		langs string
	)
	if err := row.Scan(&r.Code, &r.Name, &langs, &r.DefaultLanguage, &r.Currency, &r.Active); err != nil {
		return locale.Region{}, err
	}
	if err := unmarshalJSON(langs, &r.Languages); err != nil {
		return locale.Region{}, fmt.Errorf("decoding languages of region %s: %w", r.Code, err)
	}
	return r, nil
}

// UpsertRegion inserts or updates a region. position orders the catalog.
func (q *Queries) UpsertRegion(ctx context.Context, r locale.Region, position int, now time.Time) error {
	langs, err := jsonList(r.Languages)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO regions (code, name, languages, default_language, currency, is_active, position,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name, languages = excluded.languages,
			default_language = excluded.default_language, currency = excluded.currency,
			is_active = excluded.is_active, position = excluded.position,
			updated_at = excluded.updated_at`,
		r.Code, r.Name, langs, r.DefaultLanguage, r.Currency, r.Active, position, now, now)
	if err != nil {
		return fmt.Errorf("upserting region %s: %w", r.Code, err)
	}
	return nil
}

// SetRegionActive toggles a region.
func (q *Queries) SetRegionActive(ctx context.Context, code string, active bool, now time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE regions SET is_active = ?, updated_at = ? WHERE code = ?`, active, now, code)
	if err != nil {
		return fmt.Errorf("updating region %s: %w", code, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRegion returns a region by code, active or not.
func (q *Queries) GetRegion(ctx context.Context, code string) (locale.Region, error) {
	r, err := scanRegion(q.db.QueryRowContext(ctx,
		`SELECT `+regionColumns+` FROM regions WHERE code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return locale.Region{}, ErrNotFound
	}
	return r, err
}

// ListRegions returns every region in catalog order.
func (q *Queries) ListRegions(ctx context.Context) ([]locale.Region, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+regionColumns+` FROM regions ORDER BY position, code`)
	if err != nil {
		return nil, fmt.Errorf("listing regions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []locale.Region
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadCatalog reads the languages and regions into a locale.Catalog.
func (q *Queries) LoadCatalog(ctx context.Context, defaultRegion string) (locale.Catalog, error) {
	langs, err := q.ListLanguages(ctx)
	if err != nil {
		return locale.Catalog{}, err
	}
	regions, err := q.ListRegions(ctx)
	if err != nil {
		return locale.Catalog{}, err
	}

	c := locale.Catalog{
		Languages:     make([]string, 0, len(langs)),
		Regions:       regions,
		DefaultRegion: defaultRegion,
	}
	for _, l := range langs {
		c.Languages = append(c.Languages, l.Code)
	}
	return c, nil
}
