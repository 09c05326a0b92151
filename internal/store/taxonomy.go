// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/blogify/internal/content"
)

const categoryColumns = entityColumns + `, c.color, c.image_url, c.is_popular,
	(SELECT COUNT(*) FROM articles a JOIN entities ae ON ae.id = a.entity_id
		WHERE a.category_id = c.entity_id AND ae.published = 1)`

const authorColumns = entityColumns + `, au.name, au.avatar, au.total_views,
	(SELECT COUNT(*) FROM articles a JOIN entities ae ON ae.id = a.entity_id
		WHERE a.author_id = au.entity_id AND ae.published = 1)`

func scanCategory(row rowScanner) (*content.Category, error) {
	var (
		r entityRow
		c content.Category
	)
	if err := row.Scan(append(r.dest(), &c.Color, &c.ImageURL, &c.IsPopular, &c.PostCount)...); err != nil {
		return nil, err
	}
	e, err := r.finish()
	if err != nil {
		return nil, err
	}
	c.Entity = e
	return &c, nil
}

func scanAuthor(row rowScanner) (*content.Author, error) {
	var (
		r entityRow
		a content.Author
	)
	if err := row.Scan(append(r.dest(), &a.Name, &a.Avatar, &a.TotalViews, &a.ArticleCount)...); err != nil {
		return nil, err
	}
	e, err := r.finish()
	if err != nil {
		return nil, err
	}
	a.Entity = e
	return &a, nil
}

// CreateCategory inserts a category and its entity row.
func (s *Store) CreateCategory(ctx context.Context, c *content.Category, now time.Time) error {
	c.Kind = content.KindCategory
	return s.ExecTx(ctx, func(q *Queries) error {
		if err := q.insertEntity(ctx, &c.Entity, now); err != nil {
			return err
		}
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO categories (entity_id, color, image_url, is_popular) VALUES (?, ?, ?, ?)`,
			c.ID, c.Color, c.ImageURL, c.IsPopular,
		); err != nil {
			return fmt.Errorf("inserting category: %w", err)
		}
		return nil
	})
}

// GetCategory returns a category by entity id.
func (q *Queries) GetCategory(ctx context.Context, id int64) (*content.Category, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories c
		JOIN entities e ON e.id = c.entity_id
		WHERE c.entity_id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	return c, err
}

// ListCategories returns published categories visible in region (all when
// region is empty), popular first.
func (q *Queries) ListCategories(ctx context.Context, region string) ([]content.Category, error) {
	where, args := "e.published = 1", []any{}
	if region != "" {
		where += " AND " + visibleInRegionSQL("e")
		args = append(args, region)
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories c
		JOIN entities e ON e.id = c.entity_id
		WHERE `+where+`
		ORDER BY c.is_popular DESC, e.base_slug`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []content.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DeleteCategory removes a category that no article references.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return s.ExecTx(ctx, func(q *Queries) error {
		if err := q.ensureUnreferenced(ctx, "category_id", id); err != nil {
			return err
		}
		if _, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE entity_id = ?`, id); err != nil {
			return fmt.Errorf("deleting category %d: %w", id, err)
		}
		return q.deleteEntity(ctx, id)
	})
}

// CreateAuthor inserts an author and its entity row.
func (s *Store) CreateAuthor(ctx context.Context, a *content.Author, now time.Time) error {
	a.Kind = content.KindAuthor
	return s.ExecTx(ctx, func(q *Queries) error {
		if err := q.insertEntity(ctx, &a.Entity, now); err != nil {
			return err
		}
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO authors (entity_id, name, avatar, total_views) VALUES (?, ?, ?, ?)`,
			a.ID, a.Name, a.Avatar, a.TotalViews,
		); err != nil {
			return fmt.Errorf("inserting author: %w", err)
		}
		return nil
	})
}

// GetAuthor returns an author by entity id.
func (q *Queries) GetAuthor(ctx context.Context, id int64) (*content.Author, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+authorColumns+`
		FROM authors au
		JOIN entities e ON e.id = au.entity_id
		WHERE au.entity_id = ?`, id)
	a, err := scanAuthor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	return a, err
}

// ListAuthors returns published authors visible in region, by name.
func (q *Queries) ListAuthors(ctx context.Context, region string) ([]content.Author, error) {
	where, args := "e.published = 1", []any{}
	if region != "" {
		where += " AND " + visibleInRegionSQL("e")
		args = append(args, region)
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+authorColumns+`
		FROM authors au
		JOIN entities e ON e.id = au.entity_id
		WHERE `+where+`
		ORDER BY au.name, e.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing authors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []content.Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// DeleteAuthor removes an author that no article references.
func (s *Store) DeleteAuthor(ctx context.Context, id int64) error {
	return s.ExecTx(ctx, func(q *Queries) error {
		if err := q.ensureUnreferenced(ctx, "author_id", id); err != nil {
			return err
		}
		if _, err := q.db.ExecContext(ctx, `DELETE FROM authors WHERE entity_id = ?`, id); err != nil {
			return fmt.Errorf("deleting author %d: %w", id, err)
		}
		return q.deleteEntity(ctx, id)
	})
}

// ensureUnreferenced fails with content.ErrInUse when any article points at id
// through column.
func (q *Queries) ensureUnreferenced(ctx context.Context, column string, id int64) error {
	var n int64
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE `+column+` = ?`, id,
	).Scan(&n); err != nil {
		return fmt.Errorf("counting articles by %s: %w", column, err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %d articles", content.ErrInUse, n)
	}
	return nil
}
