// Command validate performs integrity checks on a persisted results file:
// record shape, status consistency, and re-validation of every extracted
// observation against the extraction policy (ranges, vocabularies, formats,
// minimum yield).
//
// Usage:
//
//	go run ./cmd/validate \
//	  -results maritime_weather_results.json \
//	  -policy policy.yaml \
//	  -areas areas.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/eruvierda/weather-map-leaflet/internal/adapter/store"
	"github.com/eruvierda/weather-map-leaflet/internal/catalog"
	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"github.com/eruvierda/weather-map-leaflet/internal/extract"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	resultsPath := flag.String("results", "", "path to the persisted results JSON")
	policyPath := flag.String("policy", "", "optional extraction policy YAML")
	areasPath := flag.String("areas", "", "optional area catalog to check coverage against")
	minYield := flag.Int("min-yield", 1, "minimum populated fields for a success record")
	flag.Parse()

	if *resultsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *resultsPath, *policyPath, *areasPath, *minYield))
}

func run(w io.Writer, resultsPath, policyPath, areasPath string, minYield int) int {
	fmt.Fprintln(w, "=== Maritime Results Integrity Validation ===")
	fmt.Fprintln(w)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	results, err := store.NewFileStore(resultsPath, nil, logger).Load()
	if err != nil {
		fmt.Fprintf(w, "FATAL: load results: %v\n", err)
		return 1
	}

	policy := extract.DefaultPolicy()
	if policyPath != "" {
		if policy, err = extract.LoadPolicy(policyPath); err != nil {
			fmt.Fprintf(w, "FATAL: load policy: %v\n", err)
			return 1
		}
	}
	validator := extract.NewValidator(policy)

	phases := []*phase{
		validateShape(results),
		validateObservations(results, validator, minYield),
	}
	if areasPath != "" {
		areas, err := catalog.LoadFile(areasPath)
		if err != nil {
			fmt.Fprintf(w, "FATAL: load areas: %v\n", err)
			return 1
		}
		phases = append(phases, validateCoverage(results, areas))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	var summary domain.Summary
	for _, r := range results {
		summary.Add(r)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d total, %d success, %d no_data, %d failed, %d error\n",
		summary.Total, summary.Success, summary.NoData, summary.Failed, summary.Errored)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Record Shape ──
// Every record names its area, carries a known status, and has the payload
// or error its status implies.

func validateShape(results []domain.AreaResult) *phase {
	p := &phase{name: "Phase 1: Record Shape"}
	for i, r := range results {
		label := fmt.Sprintf("record %d (%s)", i, r.AreaName)
		if r.AreaName == "" {
			p.errorf("record %d: area_name is empty", i)
		}
		if r.Timestamp.IsZero() {
			p.errorf("%s: timestamp is not set", label)
		}
		switch r.Status {
		case domain.StatusSuccess:
			if r.WeatherData == nil && len(r.RawData) == 0 {
				p.errorf("%s: success without weather_data or raw_data", label)
			}
			if r.Error != "" {
				p.errorf("%s: success carries error %q", label, r.Error)
			}
		case domain.StatusNoData, domain.StatusFailed, domain.StatusError:
			if r.WeatherData != nil {
				p.errorf("%s: %s carries weather_data", label, r.Status)
			}
			if r.Error == "" {
				p.errorf("%s: %s without error message", label, r.Status)
			}
		default:
			p.errorf("%s: unknown status %q", label, r.Status)
		}
	}
	return p
}

// ── Phase 2: Observation Re-validation ──
// Every extracted observation must pass the same checks Assemble applies.

func validateObservations(results []domain.AreaResult, v *extract.Validator, minYield int) *phase {
	p := &phase{name: "Phase 2: Observation Re-validation"}
	for i, r := range results {
		if r.WeatherData == nil {
			continue
		}
		for _, problem := range extract.Audit(r.WeatherData, v, minYield) {
			p.errorf("record %d (%s): %s", i, r.AreaName, problem)
		}
		if r.WeatherData.AreaName != r.AreaName {
			p.errorf("record %d: observation area %q does not match %q", i, r.WeatherData.AreaName, r.AreaName)
		}
	}
	return p
}

// ── Phase 3: Catalog Coverage ──
// Every catalog area appears exactly once in the results.

func validateCoverage(results []domain.AreaResult, areas []domain.Area) *phase {
	p := &phase{name: "Phase 3: Catalog Coverage"}
	seen := make(map[string]int, len(results))
	for _, r := range results {
		seen[r.URL]++
	}
	for _, a := range areas {
		switch n := seen[a.URL]; {
		case n == 0:
			p.errorf("%s: missing from results", a.Name)
		case n > 1:
			p.errorf("%s: appears %d times", a.Name, n)
		}
	}
	if len(results) != len(areas) {
		p.errorf("results hold %d records, catalog has %d areas", len(results), len(areas))
	}
	return p
}
