package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/eruvierda/weather-map-leaflet/internal/adapter/bmkg"
	httpadapter "github.com/eruvierda/weather-map-leaflet/internal/adapter/http"
	kafkaadapter "github.com/eruvierda/weather-map-leaflet/internal/adapter/kafka"
	"github.com/eruvierda/weather-map-leaflet/internal/adapter/store"
	"github.com/eruvierda/weather-map-leaflet/internal/catalog"
	"github.com/eruvierda/weather-map-leaflet/internal/config"
	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"github.com/eruvierda/weather-map-leaflet/internal/extract"
	"github.com/eruvierda/weather-map-leaflet/internal/observability"
	"github.com/eruvierda/weather-map-leaflet/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	policy := extract.DefaultPolicy()
	if cfg.ExtractPolicyFile != "" {
		policy, err = extract.LoadPolicy(cfg.ExtractPolicyFile)
		if err != nil {
			logger.Error("failed to load extraction policy", "error", err)
			os.Exit(1)
		}
		logger.Info("extraction policy loaded", "path", cfg.ExtractPolicyFile)
	}

	client := bmkg.NewClient(cfg.FetchTimeout, cfg.FetchUserAgent, logger)
	assembler := extract.New(extract.WithPolicy(policy), extract.WithLogger(logger))

	// Kafka publishing is feature-flagged via KAFKA_BROKERS and shared by every dataset.
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	var (
		runs    []datasetRun
		group   pipeline.Group
		sources = httpadapter.ResultsSources{}
	)
	for _, ds := range cfg.Datasets() {
		areas, err := loadCatalog(ds, cfg)
		if err != nil {
			logger.Error("failed to load catalog", "dataset", ds.Name, "error", err)
			os.Exit(1)
		}
		logger.Info("catalog loaded", "dataset", ds.Name, "path", ds.CatalogFile, "areas", len(areas))

		dsLogger := logger.With("dataset", ds.Name)
		fileStore := store.NewFileStore(ds.OutputFile, nil, dsLogger)

		// The file store always loads first.
		loaders := []pipeline.BatchLoader{fileStore}
		if writer != nil {
			loaders = append(loaders, writer)
		}

		p := pipeline.New(client, assembler, logger, metrics, pipeline.Settings{
			Name:         ds.Name,
			RequestDelay: cfg.RequestDelay,
			Workers:      cfg.Workers,
		}, loaders...)

		runs = append(runs, datasetRun{
			name:      ds.Name,
			areas:     areas,
			scheduler: pipeline.NewScheduler(p, fileStore, ds.Freshness, cfg.RefreshInterval, nil, dsLogger),
		})
		group = append(group, p)
		sources[ds.Name] = fileStore
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, group, sources, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start one refresh loop per dataset.
	var wg sync.WaitGroup
	for _, run := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run.scheduler.Run(ctx, run.areas); err != nil {
				logger.Error("scheduler error", "dataset", run.name, "error", err)
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("batches did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

type datasetRun struct {
	name      string
	areas     []domain.Area
	scheduler *pipeline.Scheduler
}

// loadCatalog builds a dataset's area list. The grid is generated; the
// others are read from their catalog files.
func loadCatalog(ds config.Dataset, cfg *config.Config) ([]domain.Area, error) {
	switch ds.Name {
	case config.DatasetCities:
		return catalog.LoadCitiesFile(ds.CatalogFile, cfg.OpenMeteoURL)
	case config.DatasetGrid:
		return catalog.Grid(cfg.OpenMeteoURL, catalog.IndonesiaBounds, 1), nil
	default:
		return catalog.LoadFile(ds.CatalogFile)
	}
}
