// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/blogify/internal/content"
	"github.com/olegiv/blogify/internal/util"
)

const articleColumns = entityColumns + `, a.category_id, a.author_id, a.image_url, a.tags,
	a.published_at, a.views, a.likes, a.read_time, a.featured, a.trending`

func scanArticle(row rowScanner) (*content.Article, error) {
	var (
		r           entityRow
		a           content.Article
		tags        string
		publishedAt sql.NullTime
	)
	dest := append(r.dest(),
		&a.CategoryID, &a.AuthorID, &a.ImageURL, &tags,
		&publishedAt, &a.Views, &a.Likes, &a.ReadTime, &a.Featured, &a.Trending,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e, err := r.finish()
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(tags, &a.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of article %d: %w", e.ID, err)
	}
	a.Entity = e
	a.PublishedAt = util.PtrFromNullTime(publishedAt)
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]content.Article, error) {
	defer func() { _ = rows.Close() }()

	var out []content.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CreateArticle inserts an article and its entity row in one transaction.
func (s *Store) CreateArticle(ctx context.Context, a *content.Article, now time.Time) error {
	a.Kind = content.KindArticle
	tags, err := jsonList(a.Tags)
	if err != nil {
		return err
	}
	return s.ExecTx(ctx, func(q *Queries) error {
		if err := q.insertEntity(ctx, &a.Entity, now); err != nil {
			return err
		}
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO articles (entity_id, category_id, author_id, image_url, tags, published_at,
				views, likes, read_time, featured, trending)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.CategoryID, a.AuthorID, a.ImageURL, tags, util.NullTimeFromPtr(a.PublishedAt),
			a.Views, a.Likes, a.ReadTime, a.Featured, a.Trending,
		)
		if err != nil {
			return fmt.Errorf("inserting article: %w", err)
		}
		return nil
	})
}

// GetArticle returns an article by entity id, published or not.
func (q *Queries) GetArticle(ctx context.Context, id int64) (*content.Article, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		JOIN entities e ON e.id = a.entity_id
		WHERE a.entity_id = ?`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	return a, err
}

// DeleteArticle removes an article.
func (s *Store) DeleteArticle(ctx context.Context, id int64) error {
	return s.ExecTx(ctx, func(q *Queries) error {
		if _, err := q.db.ExecContext(ctx, `DELETE FROM articles WHERE entity_id = ?`, id); err != nil {
			return fmt.Errorf("deleting article %d: %w", id, err)
		}
		return q.deleteEntity(ctx, id)
	})
}

// ArticleFilter narrows article listings. Zero values do not filter.
type ArticleFilter struct {
	Region     string
	CategoryID int64
	AuthorID   int64
	Featured   bool
	Trending   bool
	Limit      int
	Offset     int
}

func (f ArticleFilter) where() (string, []any) {
	conds := []string{"e.published = 1"}
	var args []any
	if f.Region != "" {
		conds = append(conds, visibleInRegionSQL("e"))
		args = append(args, f.Region)
	}
	if f.CategoryID != 0 {
		conds = append(conds, "a.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.AuthorID != 0 {
		conds = append(conds, "a.author_id = ?")
		args = append(args, f.AuthorID)
	}
	if f.Featured {
		conds = append(conds, "a.featured = 1")
	}
	if f.Trending {
		conds = append(conds, "a.trending = 1")
	}
	return strings.Join(conds, " AND "), args
}

// ListArticles returns published articles, newest first.
func (q *Queries) ListArticles(ctx context.Context, f ArticleFilter) ([]content.Article, error) {
	where, args := f.where()
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, f.Offset)

	rows, err := q.db.QueryContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		JOIN entities e ON e.id = a.entity_id
		WHERE `+where+`
		ORDER BY a.published_at DESC, e.id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	return scanArticles(rows)
}

// CountArticles counts the articles ListArticles would return without paging.
func (q *Queries) CountArticles(ctx context.Context, f ArticleFilter) (int64, error) {
	where, args := f.where()
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM articles a
		JOIN entities e ON e.id = a.entity_id
		WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return n, nil
}

// SearchArticles matches query against the title, excerpt and body of the
// lang variant and of the default-language variant.
func (q *Queries) SearchArticles(ctx context.Context, region, lang, query string, limit int) ([]content.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	match := func(langExpr string) string {
		var parts []string
		for _, field := range []string{"title", "excerpt", "body"} {
			parts = append(parts, fmt.Sprintf(
				`LOWER(COALESCE(json_extract(e.translations, '$.' || %s || '.%s'), '')) LIKE ? ESCAPE '\'`,
				langExpr, field))
		}
		return strings.Join(parts, " OR ")
	}

	args := []any{lang, pattern, lang, pattern, lang, pattern, pattern, pattern, pattern}
	conds := "e.published = 1 AND (" + match("?") + " OR " + match("e.default_language") + ")"
	if region != "" {
		conds += " AND " + visibleInRegionSQL("e")
		args = append(args, region)
	}
	args = append(args, limit)

	rows, err := q.db.QueryContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles a
		JOIN entities e ON e.id = a.entity_id
		WHERE `+conds+`
		ORDER BY a.published_at DESC, e.id DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}
	return scanArticles(rows)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
