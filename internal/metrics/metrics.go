// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics holds the Prometheus instruments of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RegionResolutions counts resolver outcomes by the step that decided them.
	RegionResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogify_region_resolutions_total",
			Help: "Total number of region resolutions by source",
		},
		[]string{"source"},
	)

	// GateDecisions counts access gate outcomes.
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogify_gate_decisions_total",
			Help: "Total number of access gate decisions",
		},
		[]string{"kind", "decision"},
	)

	LegacyRedirects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogify_legacy_redirects_total",
			Help: "Total number of legacy URL redirects",
		},
		[]string{"kind"},
	)

	AdSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogify_ad_selections_total",
			Help: "Total number of ad selections by placement",
		},
		[]string{"placement"},
	)

	// AdEvents counts recorded impressions and clicks.
	AdEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogify_ad_events_total",
			Help: "Total number of ad impressions and clicks",
		},
		[]string{"event"},
	)

	// SideChannelJobs counts best-effort jobs by result: ok, failed or dropped.
	SideChannelJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogify_side_channel_jobs_total",
			Help: "Total number of side-channel jobs by result",
		},
		[]string{"job", "result"},
	)

	// ScheduledRuns counts maintenance job runs by result.
	ScheduledRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogify_scheduled_runs_total",
			Help: "Total number of scheduled job runs by result",
		},
		[]string{"job", "result"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogify_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogify_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Side-channel job results.
const (
	ResultOK      = "ok"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)

// Middleware records request counts and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "not_found"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
