// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"time"

	"github.com/olegiv/blogify/internal/logging"
)

// Maintenance job names.
const (
	JobExpireAds     = "expire_ads"
	JobReloadGeoIP   = "reload_geoip"
	JobReloadRegions = "reload_regions"
	JobPruneEvents   = "prune_events"
)

// AdExpirer marks ads past their end date as expired.
type AdExpirer interface {
	ExpireAds(ctx context.Context) (int, error)
}

// GeoReloader reopens the GeoIP database from disk.
type GeoReloader interface {
	Reload() error
}

// RegistryInvalidator drops the cached region registry.
type RegistryInvalidator interface {
	Invalidate(ctx context.Context)
}

// EventPruner deletes old event log entries.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Maintenance configures the built-in jobs. A nil dependency or an empty
// schedule leaves the job out.
type Maintenance struct {
	Ads              AdExpirer
	AdExpirySchedule string

	GeoIP               GeoReloader
	GeoIPReloadSchedule string

	Regions              RegistryInvalidator
	RegionReloadSchedule string

	Events         EventPruner
	EventRetention time.Duration
	PruneSchedule  string
}

// RegisterMaintenance adds the configured maintenance jobs to s.
func (s *Scheduler) RegisterMaintenance(m Maintenance) error {
	if m.Ads != nil && m.AdExpirySchedule != "" {
		err := s.Add(JobExpireAds, "Mark ads past their end date as expired", m.AdExpirySchedule,
			func(ctx context.Context) error {
				_, err := m.Ads.ExpireAds(ctx)
				return err
			})
		if err != nil {
			return err
		}
	}

	if m.GeoIP != nil && m.GeoIPReloadSchedule != "" {
		err := s.Add(JobReloadGeoIP, "Reload the GeoIP database", m.GeoIPReloadSchedule,
			func(context.Context) error {
				return m.GeoIP.Reload()
			})
		if err != nil {
			return err
		}
	}

	if m.Regions != nil && m.RegionReloadSchedule != "" {
		err := s.Add(JobReloadRegions, "Drop the cached region registry", m.RegionReloadSchedule,
			func(ctx context.Context) error {
				m.Regions.Invalidate(ctx)
				return nil
			})
		if err != nil {
			return err
		}
	}

	if m.Events != nil && m.PruneSchedule != "" && m.EventRetention > 0 {
		err := s.Add(JobPruneEvents, "Delete old event log entries", m.PruneSchedule,
			func(ctx context.Context) error {
				n, err := m.Events.DeleteOldEvents(ctx, m.EventRetention)
				if err != nil {
					return err
				}
				if n > 0 {
					s.logger.Info("pruned events", "count", n, "category", logging.CategoryScheduler)
				}
				return nil
			})
		if err != nil {
			return err
		}
	}
	return nil
}
