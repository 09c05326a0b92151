// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/blogify/internal/util"
)

// Visitor is one recorded page view.
type Visitor struct {
	ID        int64     `json:"id"`
	IP        string    `json:"ip"`
	Country   string    `json:"country"`
	Region    string    `json:"region"`
	Language  string    `json:"language"`
	Path      string    `json:"path"`
	Referrer  string    `json:"referrer"`
	ArticleID *int64    `json:"article_id,omitempty"`
	UserAgent string    `json:"user_agent"`
	Device    string    `json:"device"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	IsBot     bool      `json:"is_bot"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateVisitor inserts a visitor record. CreatedAt is stored at second
// precision.
func (q *Queries) CreateVisitor(ctx context.Context, v *Visitor) error {
	v.CreatedAt = v.CreatedAt.UTC().Truncate(time.Second)
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO visitors (ip, country, region, language, path, referrer, article_id,
			user_agent, device, browser, os, is_bot, session_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.IP, v.Country, v.Region, v.Language, v.Path, v.Referrer, util.NullInt64FromPtr(v.ArticleID),
		v.UserAgent, v.Device, v.Browser, v.OS, v.IsBot, v.SessionID, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting visitor: %w", err)
	}
	v.ID, _ = res.LastInsertId()
	return nil
}

// Count is a labelled aggregate.
type Count struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// VisitorStats aggregates visitor records.
type VisitorStats struct {
	Total     int64   `json:"total"`
	Sessions  int64   `json:"sessions"`
	ByCountry []Count `json:"by_country"`
	ByRegion  []Count `json:"by_region"`
	ByDevice  []Count `json:"by_device"`
}

// GetVisitorStats aggregates the non-bot visitors recorded since the given time.
func (q *Queries) GetVisitorStats(ctx context.Context, since time.Time) (VisitorStats, error) {
	since = since.UTC().Truncate(time.Second)

	var s VisitorStats
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT NULLIF(session_id, ''))
		FROM visitors WHERE is_bot = 0 AND created_at >= ?`, since,
	).Scan(&s.Total, &s.Sessions)
	if err != nil {
		return VisitorStats{}, fmt.Errorf("counting visitors: %w", err)
	}

	for _, g := range []struct {
		column string
		dst    *[]Count
	}{
		{"country", &s.ByCountry},
		{"region", &s.ByRegion},
		{"device", &s.ByDevice},
	} {
		counts, err := q.groupVisitors(ctx, g.column, since)
		if err != nil {
			return VisitorStats{}, err
		}
		*g.dst = counts
	}
	return s, nil
}

func (q *Queries) groupVisitors(ctx context.Context, column string, since time.Time) ([]Count, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+column+`, COUNT(*) AS n
		FROM visitors
		WHERE is_bot = 0 AND created_at >= ? AND `+column+` <> ''
		GROUP BY `+column+`
		ORDER BY n DESC, `+column+`
		LIMIT 20`, since)
	if err != nil {
		return nil, fmt.Errorf("grouping visitors by %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	out := []Count{}
	for rows.Next() {
		var (
			key sql.NullString
			c   Count
		)
		if err := rows.Scan(&key, &c.Count); err != nil {
			return nil, err
		}
		c.Key = key.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// VisitorFilter narrows visitor reports. Zero values match everything except
// bots, which need IncludeBots.
type VisitorFilter struct {
	Since       time.Time
	Until       time.Time
	ArticleID   *int64
	Country     string
	IncludeBots bool
	Limit       int
	Offset      int
}

func (f VisitorFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !f.IncludeBots {
		conds = append(conds, "is_bot = 0")
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.Since.UTC().Truncate(time.Second))
	}
	if !f.Until.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.Until.UTC().Truncate(time.Second))
	}
	if f.ArticleID != nil {
		conds = append(conds, "article_id = ?")
		args = append(args, *f.ArticleID)
	}
	if f.Country != "" {
		conds = append(conds, "country = ?")
		args = append(args, f.Country)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// CountryCount is the number of visits and distinct sessions from a country.
type CountryCount struct {
	Country  string `json:"country"`
	Visits   int64  `json:"visits"`
	Sessions int64  `json:"sessions"`
}

// TopCountries returns the countries with the most visits matching f, at most
// f.Limit of them. Visits without a country are left out.
func (q *Queries) TopCountries(ctx context.Context, f VisitorFilter) ([]CountryCount, error) {
	where, args := f.where()
	if where == "" {
		where = " WHERE country <> ''"
	} else {
		where += " AND country <> ''"
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT country, COUNT(*) AS visits, COUNT(DISTINCT NULLIF(session_id, ''))
		FROM visitors`+where+`
		GROUP BY country
		ORDER BY visits DESC, country
		LIMIT ?`, append(args, f.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("counting visitors by country: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []CountryCount{}
	for rows.Next() {
		var c CountryCount
		if err := rows.Scan(&c.Country, &c.Visits, &c.Sessions); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentVisitors returns a page of visits matching f, newest first, and the
// total matching f.
func (q *Queries) RecentVisitors(ctx context.Context, f VisitorFilter) ([]Visitor, int64, error) {
	where, args := f.where()

	var total int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting visitors: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT id, ip, country, region, language, path, referrer, article_id,
			user_agent, device, browser, os, is_bot, session_id, created_at
		FROM visitors`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing visitors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Visitor{}
	for rows.Next() {
		var (
			v         Visitor
			articleID sql.NullInt64
		)
		if err := rows.Scan(&v.ID, &v.IP, &v.Country, &v.Region, &v.Language, &v.Path, &v.Referrer, &articleID,
			&v.UserAgent, &v.Device, &v.Browser, &v.OS, &v.IsBot, &v.SessionID, &v.CreatedAt); err != nil {
			return nil, 0, err
		}
		v.ArticleID = util.PtrFromNullInt64(articleID)
		out = append(out, v)
	}
	return out, total, rows.Err()
}
