// Command extract runs the extraction engine over saved BMKG maritime pages
// and writes the results in the same format the service persists. A fixed
// clock keeps the output reproducible, which makes it suitable for fixtures.
//
// Usage:
//
//	go run ./cmd/extract \
//	  -in internal/extract/testdata \
//	  -out data/fixtures/maritime_weather_results.json \
//	  -policy policy.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/eruvierda/weather-map-leaflet/internal/adapter/store"
	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"github.com/eruvierda/weather-map-leaflet/internal/extract"
	"github.com/jonboulle/clockwork"
)

var defaultAt = time.Date(2024, time.August, 12, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "HTML file or directory of saved area pages (*.html)")
	out := flag.String("out", "", "output path for the results JSON")
	policyPath := flag.String("policy", "", "optional extraction policy YAML")
	minYield := flag.Int("min-yield", 1, "minimum populated fields for a page to count as extracted")
	at := flag.String("at", defaultAt.Format(time.RFC3339), "timestamp stamped on every record (RFC3339)")
	verbose := flag.Bool("v", false, "log field resolutions")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		return errors.New("missing required flags: -in, -out")
	}

	stamp, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		return fmt.Errorf("parse -at: %w", err)
	}
	clock := clockwork.NewFakeClockAt(stamp)
	domain.SetClock(clock)
	defer domain.SetClock(nil)

	policy := extract.DefaultPolicy()
	if *policyPath != "" {
		if policy, err = extract.LoadPolicy(*policyPath); err != nil {
			return err
		}
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	assembler := extract.New(
		extract.WithPolicy(policy),
		extract.WithMinYield(*minYield),
		extract.WithLogger(logger),
	)

	files, err := htmlFiles(*in)
	if err != nil {
		return err
	}
	log.Printf("extracting %d pages", len(files))

	results := make([]domain.AreaResult, 0, len(files))
	for _, path := range files {
		results = append(results, extractFile(assembler, path))
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := store.NewFileStore(*out, clock, logger).Save(results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	log.Printf("wrote results: %s", *out)

	printStats(results)
	return nil
}

// htmlFiles returns path itself, or the sorted *.html files directly inside it.
func htmlFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	matches, err := filepath.Glob(filepath.Join(path, "*.html"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no .html files in %s", path)
	}
	sort.Strings(matches)
	return matches, nil
}

// extractFile treats the file name as the area slug.
func extractFile(a *extract.Assembler, path string) domain.AreaResult {
	slug := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	result := domain.AreaResult{
		AreaName:  areaName(slug),
		Slug:      slug,
		URL:       domain.MaritimeURL(slug),
		Kind:      domain.KindMaritime,
		Timestamp: domain.Now(),
	}

	f, err := os.Open(path)
	if err != nil {
		result.Status, result.Error = domain.StatusError, err.Error()
		return result
	}
	defer f.Close()

	res, err := a.AssembleReader(result.AreaName, result.URL, f)
	switch {
	case err != nil:
		result.Status, result.Error = domain.StatusError, err.Error()
	case res.Status != extract.StatusExtracted:
		result.Status, result.Error = domain.StatusNoData, "no weather data found in HTML"
	default:
		result.Status, result.WeatherData = domain.StatusSuccess, res.Observation
	}
	return result
}

// areaName turns "perairan-sabang-banda-aceh" into "Perairan Sabang Banda Aceh".
func areaName(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func printStats(results []domain.AreaResult) {
	var summary domain.Summary
	coverage := map[extract.Field]int{}
	for _, r := range results {
		summary.Add(r)
		if r.WeatherData == nil {
			continue
		}
		for f := range extract.FieldValues(r.WeatherData) {
			coverage[f]++
		}
	}

	fmt.Printf("\nPages: %d  success: %d  no_data: %d  error: %d  (%.0f%%)\n",
		summary.Total, summary.Success, summary.NoData, summary.Errored, summary.SuccessRate()*100)
	fmt.Println("\nField coverage:")
	for _, f := range extract.Fields {
		fmt.Printf("  %-20s %d/%d\n", f, coverage[f], summary.Success)
	}
}
