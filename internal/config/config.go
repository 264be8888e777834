package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Dataset names. Each dataset has its own catalog, output file and freshness threshold.
const (
	DatasetMaritime = "maritime"
	DatasetPorts    = "ports"
	DatasetCities   = "cities"
	DatasetGrid     = "grid"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	AreasFile          string
	OutputFile         string
	ExtractPolicyFile  string
	FreshnessThreshold time.Duration
	RefreshInterval    time.Duration

	// BMKG fetch configuration.
	FetchTimeout   time.Duration
	FetchUserAgent string
	RequestDelay   time.Duration
	Workers        int

	// Optional datasets, each refreshed and persisted on its own schedule.
	PortsFile        string
	PortsOutputFile  string
	PortsFreshness   time.Duration
	CitiesFile       string
	CitiesOutputFile string
	CitiesFreshness  time.Duration
	GridEnabled      bool
	GridOutputFile   string
	GridFreshness    time.Duration
	OpenMeteoURL     string

	// Optional Kafka sink. Publishing is disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Dataset is one independently refreshed result set.
type Dataset struct {
	Name string
	// CatalogFile is empty for generated catalogs such as the grid.
	CatalogFile string
	OutputFile  string
	Freshness   time.Duration
}

// DefaultUserAgent mimics a desktop browser; the BMKG site rejects bare Go clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	freshness, err := parsePositiveDuration("FRESHNESS_THRESHOLD", "24h")
	if err != nil {
		return nil, err
	}
	refresh, err := parsePositiveDuration("REFRESH_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	portsFreshness, err := parsePositiveDuration("PORTS_FRESHNESS_THRESHOLD", "6h")
	if err != nil {
		return nil, err
	}
	citiesFreshness, err := parsePositiveDuration("CITIES_FRESHNESS_THRESHOLD", "6h")
	if err != nil {
		return nil, err
	}
	gridFreshness, err := parsePositiveDuration("GRID_FRESHNESS_THRESHOLD", "12h")
	if err != nil {
		return nil, err
	}

	delay, err := time.ParseDuration(sharedcfg.EnvOrDefault("REQUEST_DELAY", "1s"))
	if err != nil || delay < 0 {
		return nil, errors.New("invalid REQUEST_DELAY")
	}

	workers, err := strconv.Atoi(sharedcfg.EnvOrDefault("WORKERS", "4"))
	if err != nil || workers <= 0 {
		return nil, errors.New("invalid WORKERS")
	}

	gridEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("GRID_ENABLED", "false"))
	if err != nil {
		return nil, errors.New("invalid GRID_ENABLED")
	}

	cfg := &Config{
		AreasFile:          sharedcfg.EnvOrDefault("AREAS_FILE", "areas.yaml"),
		OutputFile:         sharedcfg.EnvOrDefault("OUTPUT_FILE", "maritime_weather_results.json"),
		ExtractPolicyFile:  sharedcfg.EnvOrDefault("EXTRACT_POLICY_FILE", ""),
		FreshnessThreshold: freshness,
		RefreshInterval:    refresh,
		FetchTimeout:       fetchTimeout,
		FetchUserAgent:     sharedcfg.EnvOrDefault("FETCH_USER_AGENT", DefaultUserAgent),
		RequestDelay:       delay,
		Workers:            workers,
		PortsFile:          sharedcfg.EnvOrDefault("PORTS_FILE", ""),
		PortsOutputFile:    sharedcfg.EnvOrDefault("PORTS_OUTPUT_FILE", "pelabuhan_weather_data.json"),
		PortsFreshness:     portsFreshness,
		CitiesFile:         sharedcfg.EnvOrDefault("CITIES_FILE", ""),
		CitiesOutputFile:   sharedcfg.EnvOrDefault("CITIES_OUTPUT_FILE", "city_weather_data.json"),
		CitiesFreshness:    citiesFreshness,
		GridEnabled:        gridEnabled,
		GridOutputFile:     sharedcfg.EnvOrDefault("GRID_OUTPUT_FILE", "grid_weather_data_1degree.json"),
		GridFreshness:      gridFreshness,
		OpenMeteoURL:       sharedcfg.EnvOrDefault("OPENMETEO_URL", "https://api.open-meteo.com/v1/forecast"),
		KafkaBrokers:       parseOptionalBrokers(),
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "maritime-weather-observations"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
	}

	if cfg.AreasFile == "" {
		return nil, errors.New("AREAS_FILE is required")
	}
	if cfg.OutputFile == "" {
		return nil, errors.New("OUTPUT_FILE is required")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	seen := make(map[string]string)
	for _, ds := range cfg.Datasets() {
		if other, dup := seen[ds.OutputFile]; dup {
			return nil, fmt.Errorf("datasets %s and %s share output file %s", other, ds.Name, ds.OutputFile)
		}
		seen[ds.OutputFile] = ds.Name
	}

	return cfg, nil
}

// KafkaEnabled reports whether observations should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Datasets lists the enabled datasets. The maritime dataset is always first.
func (c *Config) Datasets() []Dataset {
	out := []Dataset{{
		Name:        DatasetMaritime,
		CatalogFile: c.AreasFile,
		OutputFile:  c.OutputFile,
		Freshness:   c.FreshnessThreshold,
	}}
	if c.PortsFile != "" {
		out = append(out, Dataset{
			Name:        DatasetPorts,
			CatalogFile: c.PortsFile,
			OutputFile:  c.PortsOutputFile,
			Freshness:   c.PortsFreshness,
		})
	}
	if c.CitiesFile != "" {
		out = append(out, Dataset{
			Name:        DatasetCities,
			CatalogFile: c.CitiesFile,
			OutputFile:  c.CitiesOutputFile,
			Freshness:   c.CitiesFreshness,
		})
	}
	if c.GridEnabled {
		out = append(out, Dataset{
			Name:       DatasetGrid,
			OutputFile: c.GridOutputFile,
			Freshness:  c.GridFreshness,
		})
	}
	return out
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseOptionalBrokers() []string {
	raw := sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")
	if raw == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(raw)
}
