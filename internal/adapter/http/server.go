package http

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ResultsSource returns the most recently persisted batch.
type ResultsSource interface {
	Load() ([]domain.AreaResult, error)
}

// ResultsSources maps dataset names to their persisted batches.
type ResultsSources map[string]ResultsSource

// DefaultDataset backs the bare /results route.
const DefaultDataset = "maritime"

// Server exposes health, readiness, metrics, and the latest batch results.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /results
// and /results/{dataset} routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, results ResultsSources, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /results", s.handleResults(results, func(*http.Request) string { return DefaultDataset }))
	mux.HandleFunc("GET /results/{dataset}", s.handleResults(results, func(r *http.Request) string { return r.PathValue("dataset") }))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleResults serves a dataset's persisted batch, optionally filtered by ?status= and ?kind=.
func (s *Server) handleResults(sources ResultsSources, dataset func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := dataset(r)
		source, ok := sources[name]
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown dataset " + name})
			return
		}

		results, err := source.Load()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no results yet"})
				return
			}
			s.logger.Error("load results failed", "dataset", name, "error", err)
			sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "results unavailable"})
			return
		}

		status := domain.Status(r.URL.Query().Get("status"))
		kind := domain.AreaKind(r.URL.Query().Get("kind"))
		filtered := make([]domain.AreaResult, 0, len(results))
		var summary domain.Summary
		for _, res := range results {
			if status != "" && res.Status != status {
				continue
			}
			if kind != "" && res.Kind != kind {
				continue
			}
			filtered = append(filtered, res)
			summary.Add(res)
		}

		sharedobs.WriteJSON(w, http.StatusOK, resultsResponse{Dataset: name, Summary: summary, Results: filtered})
	}
}

type resultsResponse struct {
	Dataset string              `json:"dataset"`
	Summary domain.Summary      `json:"summary"`
	Results []domain.AreaResult `json:"results"`
}
