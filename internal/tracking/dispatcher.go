// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tracking runs best-effort side effects (view counters, ad
// impressions and clicks, visitor records) off the request path. Jobs may be
// dropped under load and their failures never reach the caller.
package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/blogify/internal/metrics"
)

// Job is a unit of best-effort work.
type Job func(ctx context.Context) error

type queuedJob struct {
	name string
	run  Job
}

// Config holds dispatcher configuration.
type Config struct {
	Workers   int           // number of concurrent workers
	QueueSize int           // jobs buffered before Dispatch starts dropping
	Timeout   time.Duration // per-job deadline
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		QueueSize: 1000,
		Timeout:   5 * time.Second,
	}
}

// Dispatcher runs jobs on a fixed worker pool fed by a bounded queue.
type Dispatcher struct {
	logger  *slog.Logger
	queue   chan queuedJob
	workers int
	timeout time.Duration
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// NewDispatcher creates a dispatcher. Call Start before dispatching.
func NewDispatcher(logger *slog.Logger, cfg Config) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		logger:  logger,
		queue:   make(chan queuedJob, cfg.QueueSize),
		workers: cfg.Workers,
		timeout: cfg.Timeout,
		done:    make(chan struct{}),
	}
}

// Start starts the workers.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true

	d.logger.Info("starting tracking dispatcher", "workers", d.workers, "queue_size", cap(d.queue))
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop stops accepting jobs, runs what is already queued and waits for the
// workers to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.done)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("tracking dispatcher stopped")
}

// Dispatch queues a job and returns immediately. It reports false when the
// job was dropped because the dispatcher is stopped or the queue is full.
func (d *Dispatcher) Dispatch(name string, job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		d.drop(name, "dispatcher not running")
		return false
	}

	select {
	case d.queue <- queuedJob{name: name, run: job}:
		return true
	default:
		d.drop(name, "queue full")
		return false
	}
}

// Pending returns the number of queued jobs.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

func (d *Dispatcher) drop(name, reason string) {
	metrics.SideChannelJobs.WithLabelValues(name, metrics.ResultDropped).Inc()
	d.logger.Warn("tracking job dropped", "job", name, "reason", reason, "category", "tracking")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for {
		select {
		case j := <-d.queue:
			d.run(j)
		case <-d.done:
			// Drain what was accepted before Stop.
			for {
				select {
				case j := <-d.queue:
					d.run(j)
				default:
					d.logger.Debug("tracking worker stopping", "worker_id", id)
					return
				}
			}
		}
	}
}

func (d *Dispatcher) run(j queuedJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			metrics.SideChannelJobs.WithLabelValues(j.name, metrics.ResultFailed).Inc()
			d.logger.Error("tracking job panicked", "job", j.name, "panic", rec, "category", "tracking")
		}
	}()

	if err := j.run(ctx); err != nil {
		metrics.SideChannelJobs.WithLabelValues(j.name, metrics.ResultFailed).Inc()
		d.logger.Warn("tracking job failed", "job", j.name, "error", err, "category", "tracking")
		return
	}
	metrics.SideChannelJobs.WithLabelValues(j.name, metrics.ResultOK).Inc()
}
