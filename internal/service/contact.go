// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/olegiv/blogify/internal/logging"
	"github.com/olegiv/blogify/internal/store"
)

// ContactInput is a message submitted through the contact form.
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Contact stores contact form messages and manages the admin inbox.
type Contact struct {
	store    *store.Store
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewContact creates the contact service.
func NewContact(s *store.Store, logger *slog.Logger) *Contact {
	if logger == nil {
		logger = slog.Default()
	}
	return &Contact{
		store:    s,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the time source.
func (c *Contact) SetClock(now func() time.Time) {
	c.now = now
}

// Submit validates and stores a message. Fields are trimmed and the email
// lowercased before validation.
func (c *Contact) Submit(ctx context.Context, in ContactInput) (*store.ContactMessage, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Subject = strings.TrimSpace(in.Subject)
	if strings.TrimSpace(in.Message) == "" {
		in.Message = ""
	}
	if err := validateStruct(c.validate, in); err != nil {
		return nil, err
	}

	m := &store.ContactMessage{
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: c.now(),
	}
	if err := c.store.CreateContactMessage(ctx, m); err != nil {
		return nil, err
	}
	c.logger.Info("contact message received", "id", m.ID, "category", logging.CategoryContact)
	return m, nil
}

// List returns a page of messages and the total matching f.
func (c *Contact) List(ctx context.Context, f store.ContactFilter) ([]store.ContactMessage, int64, error) {
	return c.store.ListContactMessages(ctx, f)
}

// Open returns a message and marks it read.
func (c *Contact) Open(ctx context.Context, id int64) (*store.ContactMessage, error) {
	m, err := c.store.GetContactMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Read {
		return m, nil
	}
	return c.MarkRead(ctx, id)
}

// MarkRead flags a message as read and returns it.
func (c *Contact) MarkRead(ctx context.Context, id int64) (*store.ContactMessage, error) {
	if err := c.store.MarkContactRead(ctx, id, c.now()); err != nil {
		return nil, err
	}
	return c.store.GetContactMessage(ctx, id)
}

// MarkReplied flags a message as replied and returns it.
func (c *Contact) MarkReplied(ctx context.Context, id int64) (*store.ContactMessage, error) {
	if err := c.store.MarkContactReplied(ctx, id, c.now()); err != nil {
		return nil, err
	}
	return c.store.GetContactMessage(ctx, id)
}

// Delete removes a message.
func (c *Contact) Delete(ctx context.Context, id int64) error {
	return c.store.DeleteContactMessage(ctx, id)
}

// Counts returns the unread and unreplied counts.
func (c *Contact) Counts(ctx context.Context) (store.ContactCounts, error) {
	return c.store.CountContactMessages(ctx)
}
