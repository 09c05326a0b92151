// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/olegiv/blogify/internal/content"
)

const entityColumns = `e.id, e.kind, e.base_slug, e.default_language, e.is_global,
	e.region_restrictions, e.translations, e.published, e.created_at, e.updated_at`

// entityRow holds the raw JSON columns of an entities row while scanning.
type entityRow struct {
	e            content.Entity
	restrictions string
	translations string
}

func (r *entityRow) dest() []any {
	return []any{
		&r.e.ID, &r.e.Kind, &r.e.BaseSlug, &r.e.DefaultLanguage, &r.e.Visibility.Global,
		&r.restrictions, &r.translations, &r.e.Published, &r.e.CreatedAt, &r.e.UpdatedAt,
	}
}

func (r *entityRow) finish() (content.Entity, error) {
	if err := unmarshalJSON(r.restrictions, &r.e.Visibility.Regions); err != nil {
		return content.Entity{}, fmt.Errorf("decoding region restrictions of entity %d: %w", r.e.ID, err)
	}
	if err := unmarshalJSON(r.translations, &r.e.Variants); err != nil {
		return content.Entity{}, fmt.Errorf("decoding translations of entity %d: %w", r.e.ID, err)
	}
	if r.e.Variants == nil {
		r.e.Variants = content.Variants{}
	}
	return r.e, nil
}

func scanEntity(row rowScanner) (*content.Entity, error) {
	var r entityRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	e, err := r.finish()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEntities(rows *sql.Rows) ([]content.Entity, error) {
	defer func() { _ = rows.Close() }()

	var out []content.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// insertEntity writes the shared entity row and its slug index, setting
// e.ID and the timestamps.
func (q *Queries) insertEntity(ctx context.Context, e *content.Entity, now time.Time) error {
	restrictions, err := jsonList(e.Visibility.Regions)
	if err != nil {
		return err
	}
	translations, err := marshalJSON(e.Variants)
	if err != nil {
		return err
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO entities (kind, base_slug, default_language, is_global, region_restrictions,
			visibility_key, translations, published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Kind, e.BaseSlug, e.DefaultLanguage, e.Visibility.Global, restrictions,
		e.Visibility.Key(), translations, e.Published, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s base slug %q already used for this visibility",
				content.ErrInvalid, e.Kind, e.BaseSlug)
		}
		return fmt.Errorf("inserting entity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading entity id: %w", err)
	}
	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now

	return q.replaceSlugs(ctx, e)
}

// replaceSlugs rebuilds the slug index rows of an entity.
func (q *Queries) replaceSlugs(ctx context.Context, e *content.Entity) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM entity_slugs WHERE entity_id = ?`, e.ID); err != nil {
		return fmt.Errorf("clearing slugs of entity %d: %w", e.ID, err)
	}
	for lang, v := range e.Variants {
		if !v.Present() || v.Slug == "" {
			continue
		}
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO entity_slugs (entity_id, kind, language, slug) VALUES (?, ?, ?, ?)`,
			e.ID, e.Kind, lang, v.Slug,
		); err != nil {
			return fmt.Errorf("indexing %s slug of entity %d: %w", lang, e.ID, err)
		}
	}
	return nil
}

// UpdateEntityVariants replaces the translations of an entity.
func (q *Queries) UpdateEntityVariants(ctx context.Context, id int64, variants content.Variants, now time.Time) error {
	e, err := q.GetEntity(ctx, id)
	if err != nil {
		return err
	}
	translations, err := marshalJSON(variants)
	if err != nil {
		return err
	}
	if _, err := q.db.ExecContext(ctx,
		`UPDATE entities SET translations = ?, updated_at = ? WHERE id = ?`,
		translations, now, id,
	); err != nil {
		return fmt.Errorf("updating entity %d: %w", id, err)
	}
	e.Variants = variants
	return q.replaceSlugs(ctx, e)
}

// SetEntityPublished toggles the published flag.
func (q *Queries) SetEntityPublished(ctx context.Context, id int64, published bool, now time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE entities SET published = ?, updated_at = ? WHERE id = ?`, published, now, id)
	if err != nil {
		return fmt.Errorf("updating entity %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return content.ErrNotFound
	}
	return nil
}

// GetEntity returns an entity by id, published or not.
func (q *Queries) GetEntity(ctx context.Context, id int64) (*content.Entity, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities e WHERE e.id = ?`, id)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	return e, err
}

func (q *Queries) deleteEntity(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM entity_slugs WHERE entity_id = ?`, id); err != nil {
		return fmt.Errorf("deleting slugs of entity %d: %w", id, err)
	}
	res, err := q.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entity %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return content.ErrNotFound
	}
	return nil
}

// FindByBaseSlug implements content.EntityStore. Global entities win over
// regional siblings sharing the base slug.
func (q *Queries) FindByBaseSlug(ctx context.Context, kind content.Kind, slug string) (*content.Entity, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+entityColumns+`
		FROM entities e
		WHERE e.kind = ? AND e.base_slug = ? AND e.published = 1
		ORDER BY e.is_global DESC, e.id
		LIMIT 1`, kind, slug)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	return e, err
}

// FindBySlugAcrossLanguages implements content.EntityStore.
func (q *Queries) FindBySlugAcrossLanguages(ctx context.Context, kind content.Kind, candidates []content.SlugCandidate) (*content.Entity, error) {
	if len(candidates) == 0 {
		return nil, content.ErrNotFound
	}

	clauses := make([]string, 0, len(candidates))
	args := make([]any, 0, 1+2*len(candidates))
	args = append(args, kind)
	for _, c := range candidates {
		clauses = append(clauses, "(s.language = ? AND s.slug = ?)")
		args = append(args, c.Language, c.Slug)
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT `+entityColumns+`, s.language, s.slug
		FROM entity_slugs s
		JOIN entities e ON e.id = s.entity_id
		WHERE s.kind = ? AND e.published = 1 AND (`+strings.Join(clauses, " OR ")+`)
		ORDER BY e.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying variant slugs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		best     *content.Entity
		bestRank = len(candidates)
	)
	for rows.Next() {
		var (
			r          entityRow
			lang, slug string
		)
		if err := rows.Scan(append(r.dest(), &lang, &slug)...); err != nil {
			return nil, err
		}
		rank := slices.Index(candidates, content.SlugCandidate{Language: lang, Slug: slug})
		if rank < 0 || rank >= bestRank {
			continue
		}
		e, err := r.finish()
		if err != nil {
			return nil, err
		}
		best, bestRank = &e, rank
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if best == nil {
		return nil, content.ErrNotFound
	}
	return best, nil
}

// FindSiblingByBaseSlug implements content.EntityStore.
func (q *Queries) FindSiblingByBaseSlug(ctx context.Context, kind content.Kind, baseSlug string, excludeID int64, visible func(content.Visibility) bool) (*content.Entity, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+entityColumns+`
		FROM entities e
		WHERE e.kind = ? AND e.base_slug = ? AND e.id <> ? AND e.published = 1
		ORDER BY e.is_global DESC, e.id`, kind, baseSlug, excludeID)
	if err != nil {
		return nil, fmt.Errorf("querying siblings: %w", err)
	}
	siblings, err := scanEntities(rows)
	if err != nil {
		return nil, err
	}
	for i := range siblings {
		if visible == nil || visible(siblings[i].Visibility) {
			return &siblings[i], nil
		}
	}
	return nil, content.ErrNotFound
}

// Counters accepted by IncrementCounter.
const (
	CounterViews      = "views"
	CounterLikes      = "likes"
	CounterTotalViews = "total_views"
)

// IncrementCounter implements content.EntityStore.
func (q *Queries) IncrementCounter(ctx context.Context, kind content.Kind, id int64, counter string) error {
	var stmt string
	switch {
	case kind == content.KindArticle && counter == CounterViews:
		stmt = `UPDATE articles SET views = views + 1 WHERE entity_id = ?`
	case kind == content.KindArticle && counter == CounterLikes:
		stmt = `UPDATE articles SET likes = likes + 1 WHERE entity_id = ?`
	case kind == content.KindAuthor && counter == CounterTotalViews:
		stmt = `UPDATE authors SET total_views = total_views + 1 WHERE entity_id = ?`
	default:
		return fmt.Errorf("unsupported counter %s.%s", kind, counter)
	}

	res, err := q.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("incrementing %s.%s of %d: %w", kind, counter, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return content.ErrNotFound
	}
	return nil
}
