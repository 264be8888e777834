package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Freshness reports whether persisted results are recent enough to skip a
// refresh, and snapshots them before they are overwritten.
type Freshness interface {
	IsFresh(threshold time.Duration) bool
	Backup() (string, error)
}

// Scheduler re-runs the pipeline every interval whenever the persisted
// results have gone stale.
type Scheduler struct {
	pipeline  *Pipeline
	store     Freshness
	threshold time.Duration
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler. A nil clock uses real time.
func NewScheduler(p *Pipeline, store Freshness, threshold, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		pipeline:  p,
		store:     store,
		threshold: threshold,
		interval:  interval,
		clock:     clock,
		logger:    logger,
	}
}

// Run checks freshness immediately and then once per interval until the
// context is cancelled. A failed batch is retried with exponential backoff
// capped at the interval.
func (s *Scheduler) Run(ctx context.Context, areas []domain.Area) error {
	s.logger.Info("scheduler started", "interval", s.interval, "threshold", s.threshold, "areas", len(areas))

	backoff := initialBackoff
	for {
		wait := s.interval
		if !s.refresh(ctx, areas) {
			if ctx.Err() != nil {
				break
			}
			wait = min(backoff, s.interval)
			backoff = retry.NextBackoff(backoff, s.interval)
		} else {
			backoff = initialBackoff
		}

		if !sleepWithContext(ctx, s.clock, wait) {
			break
		}
	}

	s.logger.Info("scheduler stopping", "reason", ctx.Err())
	return nil
}

// refresh runs one batch when the results are stale. Returns false if the batch failed.
func (s *Scheduler) refresh(ctx context.Context, areas []domain.Area) bool {
	if s.store.IsFresh(s.threshold) {
		s.logger.Info("results are fresh, skipping refresh")
		s.pipeline.MarkReady()
		return true
	}

	if name, err := s.store.Backup(); err != nil {
		s.logger.Warn("backup failed, continuing with refresh", "error", err)
	} else if name != "" {
		s.logger.Info("previous results backed up", "path", name)
	}

	if _, err := s.pipeline.Run(ctx, areas); err != nil {
		if ctx.Err() == nil {
			s.logger.Error("refresh failed", "error", err)
		}
		return false
	}
	return true
}

const initialBackoff = 30 * time.Second

// sleepWithContext mirrors retry.SleepWithContext on an injectable clock.
func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
