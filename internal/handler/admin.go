// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the admin JSON API: content authoring, ad
// management, the contact inbox, visitor reports and operations.
package handler

import (
	"github.com/go-chi/chi/v5"
)

// Admin groups the admin handlers.
type Admin struct {
	Content   *ContentHandler
	Ads       *AdsHandler
	Regions   *RegionsHandler
	Scheduler *SchedulerHandler
	Events    *EventsHandler
	Cache     *CacheHandler
	Contact   *ContactHandler
	Visitors  *VisitorsHandler
}

// Routes registers every configured admin handler on r.
func (a Admin) Routes(r chi.Router) {
	if a.Content != nil {
		a.Content.Routes(r)
	}
	if a.Ads != nil {
		a.Ads.Routes(r)
	}
	if a.Regions != nil {
		a.Regions.Routes(r)
	}
	if a.Scheduler != nil {
		a.Scheduler.Routes(r)
	}
	if a.Events != nil {
		a.Events.Routes(r)
	}
	if a.Cache != nil {
		a.Cache.Routes(r)
	}
	if a.Contact != nil {
		a.Contact.Routes(r)
	}
	if a.Visitors != nil {
		a.Visitors.Routes(r)
	}
}
