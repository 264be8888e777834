package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"github.com/eruvierda/weather-map-leaflet/internal/extract"
	"github.com/eruvierda/weather-map-leaflet/internal/observability"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Fetcher retrieves one page by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (domain.Page, error)
}

// Extractor turns an HTML page into an observation.
type Extractor interface {
	Assemble(page domain.Page) (extract.Result, error)
}

// BatchLoader writes a completed batch to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, results []domain.AreaResult) error
}

// Settings tunes request pacing and concurrency.
type Settings struct {
	// Name labels the dataset in logs and readiness errors.
	Name string
	// RequestDelay is the minimum spacing between request starts. Zero disables pacing.
	RequestDelay time.Duration
	// Workers bounds how many areas are fetched and extracted concurrently.
	Workers int
}

// Pipeline coordinates one fetch-extract-load batch over a list of areas.
type Pipeline struct {
	fetcher   Fetcher
	extractor Extractor
	loaders   []BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	limiter   *rate.Limiter
	workers   int
	name      string
	ready     atomic.Bool
}

// New creates a Pipeline. Loaders run in order after every batch.
func New(f Fetcher, e Extractor, logger *slog.Logger, metrics *observability.Metrics, s Settings, loaders ...BatchLoader) *Pipeline {
	limit := rate.Inf
	if s.RequestDelay > 0 {
		limit = rate.Every(s.RequestDelay)
	}
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	if s.Name != "" {
		logger = logger.With("dataset", s.Name)
	}
	return &Pipeline{
		fetcher:   f,
		extractor: e,
		loaders:   loaders,
		logger:    logger,
		metrics:   metrics,
		limiter:   rate.NewLimiter(limit, 1),
		workers:   workers,
		name:      s.Name,
	}
}

// Name returns the dataset name the pipeline was created with.
func (p *Pipeline) Name() string {
	return p.name
}

// CheckReadiness returns nil once a batch has completed or fresh results were
// found on startup, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no batch has completed yet")
	}
	return nil
}

// Ready reports whether CheckReadiness would succeed.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// MarkReady flags the service ready without running a batch.
func (p *Pipeline) MarkReady() {
	p.ready.Store(true)
}

// Run processes every area and hands the results, in input order, to the loaders.
// Per-area failures are recorded in the results and never abort the batch.
// An error is returned only when the context is cancelled or a loader fails.
func (p *Pipeline) Run(ctx context.Context, areas []domain.Area) ([]domain.AreaResult, error) {
	start := time.Now()
	p.logger.Info("batch started", "areas", len(areas), "workers", p.workers)
	p.metrics.PipelineRunning.Inc()
	defer p.metrics.PipelineRunning.Dec()

	results := make([]domain.AreaResult, len(areas))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, area := range areas {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = p.processArea(ctx, area)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	if err := ctx.Err(); err != nil {
		p.logger.Info("batch cancelled", "reason", err)
		return nil, err
	}

	var summary domain.Summary
	for _, r := range results {
		summary.Add(r)
	}
	p.metrics.BatchSize.Observe(float64(len(areas)))
	p.logger.Info("batch extracted",
		"total", summary.Total,
		"success", summary.Success,
		"no_data", summary.NoData,
		"failed", summary.Failed,
		"error", summary.Errored,
		"success_rate", summary.SuccessRate(),
	)

	if err := p.load(ctx, results); err != nil {
		return results, err
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return results, nil
}

// load runs every loader even when an earlier one fails.
func (p *Pipeline) load(ctx context.Context, results []domain.AreaResult) error {
	var errs []error
	for _, l := range p.loaders {
		if err := l.LoadBatch(ctx, results); err != nil {
			p.logger.Error("load batch failed", "error", err, "batch_size", len(results))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("load batch: %w", errors.Join(errs...))
	}
	return nil
}

// Group reports ready once every member pipeline is ready.
type Group []*Pipeline

// CheckReadiness returns the first member's readiness error, prefixed with its name.
func (g Group) CheckReadiness(ctx context.Context) error {
	for _, p := range g {
		if err := p.CheckReadiness(ctx); err != nil {
			if p.name == "" {
				return err
			}
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}
	return nil
}
