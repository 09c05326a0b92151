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

	"github.com/olegiv/blogify/internal/util"
)

// ContactMessage is a message sent through the public contact form.
type ContactMessage struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Subject   string     `json:"subject"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	Replied   bool       `json:"replied"`
	RepliedAt *time.Time `json:"replied_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ContactFilter narrows a contact message listing. Nil flags match both states.
type ContactFilter struct {
	Read    *bool
	Replied *bool
	Limit   int
	Offset  int
}

// ContactCounts are the inbox counters.
type ContactCounts struct {
	Unread    int64 `json:"unread"`
	Unreplied int64 `json:"unreplied"`
}

const contactColumns = `id, name, email, subject, message, is_read, read_at, is_replied, replied_at, created_at`

func scanContactMessage(row rowScanner) (*ContactMessage, error) {
	var (
		m                 ContactMessage
		readAt, repliedAt sql.NullTime
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message,
		&m.Read, &readAt, &m.Replied, &repliedAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.ReadAt = util.PtrFromNullTime(readAt)
	m.RepliedAt = util.PtrFromNullTime(repliedAt)
	return &m, nil
}

// CreateContactMessage inserts a message, setting its id.
func (q *Queries) CreateContactMessage(ctx context.Context, m *ContactMessage) error {
	m.CreatedAt = m.CreatedAt.UTC().Truncate(time.Second)
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO contact_messages (name, email, subject, message, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.Name, m.Email, m.Subject, m.Message, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting contact message: %w", err)
	}
	m.ID, _ = res.LastInsertId()
	return nil
}

// GetContactMessage returns a message by id.
func (q *Queries) GetContactMessage(ctx context.Context, id int64) (*ContactMessage, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contact_messages WHERE id = ?`, id)
	m, err := scanContactMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading contact message %d: %w", id, err)
	}
	return m, nil
}

func (f ContactFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Read != nil {
		conds = append(conds, "is_read = ?")
		args = append(args, *f.Read)
	}
	if f.Replied != nil {
		conds = append(conds, "is_replied = ?")
		args = append(args, *f.Replied)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListContactMessages returns a page of messages, newest first, and the total
// matching the filter.
func (q *Queries) ListContactMessages(ctx context.Context, f ContactFilter) ([]ContactMessage, int64, error) {
	where, args := f.where()

	var total int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_messages`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting contact messages: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contactColumns+` FROM contact_messages`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing contact messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []ContactMessage{}
	for rows.Next() {
		m, err := scanContactMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

// MarkContactRead flags a message as read. An already read message keeps its
// first read time.
func (q *Queries) MarkContactRead(ctx context.Context, id int64, now time.Time) error {
	return q.flagContact(ctx, id, `is_read = 1, read_at = COALESCE(read_at, ?)`, now)
}

// MarkContactReplied flags a message as replied.
func (q *Queries) MarkContactReplied(ctx context.Context, id int64, now time.Time) error {
	return q.flagContact(ctx, id, `is_replied = 1, replied_at = COALESCE(replied_at, ?)`, now)
}

func (q *Queries) flagContact(ctx context.Context, id int64, set string, now time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE contact_messages SET `+set+` WHERE id = ?`, now.UTC().Truncate(time.Second), id)
	if err != nil {
		return fmt.Errorf("updating contact message %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContactMessage removes a message.
func (q *Queries) DeleteContactMessage(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting contact message %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountContactMessages returns the unread and unreplied counts.
func (q *Queries) CountContactMessages(ctx context.Context) (ContactCounts, error) {
	var c ContactCounts
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(is_read = 0), 0), COALESCE(SUM(is_replied = 0), 0)
		FROM contact_messages`).Scan(&c.Unread, &c.Unreplied)
	if err != nil {
		return ContactCounts{}, fmt.Errorf("counting contact messages: %w", err)
	}
	return c, nil
}
