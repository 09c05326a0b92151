// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/blogify/internal/ads"
	"github.com/olegiv/blogify/internal/util"
)

const adColumns = `id, name, base_slug, default_language, translations, type, status, placement,
	position, priority, target_regions, target_languages, target_categories, start_date, end_date,
	click_url, image_url, html_content, impressions, clicks, max_impressions, max_clicks,
	is_active, created_at, updated_at`

func scanAd(row rowScanner) (*ads.Ad, error) {
	var (
		a                         ads.Ad
		translations              string
		regions, langs, cats      string
		startDate, endDate        sql.NullTime
		maxImpressions, maxClicks sql.NullInt64
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.BaseSlug, &a.DefaultLanguage, &translations, &a.Type, &a.Status, &a.Placement,
		&a.Position, &a.Priority, &regions, &langs, &cats, &startDate, &endDate,
		&a.ClickURL, &a.ImageURL, &a.HTMLContent, &a.Impressions, &a.Clicks, &maxImpressions, &maxClicks,
		&a.Active, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw string
		v   any
	}{
		{translations, &a.Variants},
		{regions, &a.TargetRegions},
		{langs, &a.TargetLanguages},
		{cats, &a.TargetCategories},
	} {
		if err := unmarshalJSON(f.raw, f.v); err != nil {
			return nil, fmt.Errorf("decoding ad %d: %w", a.ID, err)
		}
	}
	a.StartDate = util.PtrFromNullTime(startDate)
	a.EndDate = util.PtrFromNullTime(endDate)
	a.MaxImpressions = util.PtrFromNullInt64(maxImpressions)
	a.MaxClicks = util.PtrFromNullInt64(maxClicks)
	return &a, nil
}

func scanAds(rows *sql.Rows) ([]ads.Ad, error) {
	defer func() { _ = rows.Close() }()

	var out []ads.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CreateAd inserts an ad, setting its id and timestamps.
func (q *Queries) CreateAd(ctx context.Context, a *ads.Ad, now time.Time) error {
	translations, err := marshalJSON(a.Variants)
	if err != nil {
		return err
	}
	regions, err := jsonList(a.TargetRegions)
	if err != nil {
		return err
	}
	langs, err := jsonList(a.TargetLanguages)
	if err != nil {
		return err
	}
	cats, err := jsonList(a.TargetCategories)
	if err != nil {
		return err
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO ads (name, base_slug, default_language, translations, type, status, placement,
			position, priority, target_regions, target_languages, target_categories, start_date, end_date,
			click_url, image_url, html_content, impressions, clicks, max_impressions, max_clicks,
			is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Name, a.BaseSlug, a.DefaultLanguage, translations, a.Type, a.Status, a.Placement,
		a.Position, a.Priority, regions, langs, cats,
		util.NullTimeFromPtr(a.StartDate), util.NullTimeFromPtr(a.EndDate),
		a.ClickURL, a.ImageURL, a.HTMLContent, a.Impressions, a.Clicks,
		util.NullInt64FromPtr(a.MaxImpressions), util.NullInt64FromPtr(a.MaxClicks),
		a.Active, now, now,
	)
	if err != nil {
		return fmt.Errorf("inserting ad: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading ad id: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetAd returns an ad by id.
func (q *Queries) GetAd(ctx context.Context, id int64) (*ads.Ad, error) {
	a, err := scanAd(q.db.QueryRowContext(ctx, `SELECT `+adColumns+` FROM ads WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// ListAds returns every ad, newest first.
func (q *Queries) ListAds(ctx context.Context) ([]ads.Ad, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+adColumns+` FROM ads ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing ads: %w", err)
	}
	return scanAds(rows)
}

// ListAdsByPlacement returns the active ads of a placement. Targeting, dates
// and caps are left to ads.Select.
func (q *Queries) ListAdsByPlacement(ctx context.Context, placement ads.Placement) ([]ads.Ad, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+adColumns+`
		FROM ads
		WHERE placement = ? AND status = ? AND is_active = 1
		ORDER BY id`, placement, ads.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("listing ads for %s: %w", placement, err)
	}
	return scanAds(rows)
}

// Ad counters accepted by IncrementAdCounter.
const (
	AdCounterImpressions = "impressions"
	AdCounterClicks      = "clicks"
)

// IncrementAdCounter bumps an ad's impressions or clicks.
func (q *Queries) IncrementAdCounter(ctx context.Context, id int64, counter string) error {
	var stmt string
	switch counter {
	case AdCounterImpressions:
		stmt = `UPDATE ads SET impressions = impressions + 1 WHERE id = ?`
	case AdCounterClicks:
		stmt = `UPDATE ads SET clicks = clicks + 1 WHERE id = ?`
	default:
		return fmt.Errorf("unsupported ad counter %q", counter)
	}
	res, err := q.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("incrementing ad %d %s: %w", id, counter, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdCounts is the live impression and click count of an ad.
type AdCounts struct {
	Impressions int64
	Clicks      int64
}

// AdCounters reads the current counters of the given ads.
func (q *Queries) AdCounters(ctx context.Context, ids []int64) (map[int64]AdCounts, error) {
	out := make(map[int64]AdCounts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, impressions, clicks FROM ads WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("reading ad counters: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			id int64
			c  AdCounts
		)
		if err := rows.Scan(&id, &c.Impressions, &c.Clicks); err != nil {
			return nil, fmt.Errorf("scanning ad counters: %w", err)
		}
		out[id] = c
	}
	return out, rows.Err()
}

// UpdateAdStatus sets an ad's status.
func (q *Queries) UpdateAdStatus(ctx context.Context, id int64, status ads.Status, now time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE ads SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	if err != nil {
		return fmt.Errorf("updating ad %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireAds marks active ads whose end date lies before now as expired and
// returns how many were changed.
func (q *Queries) ExpireAds(ctx context.Context, now time.Time) (int, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+adColumns+` FROM ads WHERE status = ? AND end_date IS NOT NULL`, ads.StatusActive)
	if err != nil {
		return 0, fmt.Errorf("listing ads with end dates: %w", err)
	}
	list, err := scanAds(rows)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, a := range list {
		if !a.Expired(now) {
			continue
		}
		if err := q.UpdateAdStatus(ctx, a.ID, ads.StatusExpired, now); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
