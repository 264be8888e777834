package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "areas.yaml", cfg.AreasFile)
	assert.Equal(t, "maritime_weather_results.json", cfg.OutputFile)
	assert.Empty(t, cfg.ExtractPolicyFile)
	assert.Equal(t, 24*time.Hour, cfg.FreshnessThreshold)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, DefaultUserAgent, cfg.FetchUserAgent)
	assert.Equal(t, time.Second, cfg.RequestDelay)
	assert.Equal(t, 4, cfg.Workers)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "maritime-weather-observations", cfg.KafkaTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Empty(t, cfg.PortsFile)
	assert.Equal(t, 6*time.Hour, cfg.PortsFreshness)
	assert.Empty(t, cfg.CitiesFile)
	assert.Equal(t, 6*time.Hour, cfg.CitiesFreshness)
	assert.False(t, cfg.GridEnabled)
	assert.Equal(t, 12*time.Hour, cfg.GridFreshness)
	assert.Equal(t, "https://api.open-meteo.com/v1/forecast", cfg.OpenMeteoURL)

	assert.Equal(t, []Dataset{{
		Name:        DatasetMaritime,
		CatalogFile: "areas.yaml",
		OutputFile:  "maritime_weather_results.json",
		Freshness:   24 * time.Hour,
	}}, cfg.Datasets())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("AREAS_FILE", "/etc/maritime/areas.json")
	t.Setenv("OUTPUT_FILE", "/var/lib/maritime/results.json")
	t.Setenv("EXTRACT_POLICY_FILE", "/etc/maritime/policy.yaml")
	t.Setenv("FRESHNESS_THRESHOLD", "6h")
	t.Setenv("REFRESH_INTERVAL", "15m")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("FETCH_USER_AGENT", "maritime-etl/1.0")
	t.Setenv("REQUEST_DELAY", "250ms")
	t.Setenv("WORKERS", "8")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-observations")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/etc/maritime/areas.json", cfg.AreasFile)
	assert.Equal(t, "/var/lib/maritime/results.json", cfg.OutputFile)
	assert.Equal(t, "/etc/maritime/policy.yaml", cfg.ExtractPolicyFile)
	assert.Equal(t, 6*time.Hour, cfg.FreshnessThreshold)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "maritime-etl/1.0", cfg.FetchUserAgent)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-observations", cfg.KafkaTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_AllDatasets(t *testing.T) {
	t.Setenv("PORTS_FILE", "ports.yaml")
	t.Setenv("CITIES_FILE", "namaKota.json")
	t.Setenv("CITIES_FRESHNESS_THRESHOLD", "3h")
	t.Setenv("GRID_ENABLED", "true")
	t.Setenv("GRID_OUTPUT_FILE", "grid.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []Dataset{
		{Name: DatasetMaritime, CatalogFile: "areas.yaml", OutputFile: "maritime_weather_results.json", Freshness: 24 * time.Hour},
		{Name: DatasetPorts, CatalogFile: "ports.yaml", OutputFile: "pelabuhan_weather_data.json", Freshness: 6 * time.Hour},
		{Name: DatasetCities, CatalogFile: "namaKota.json", OutputFile: "city_weather_data.json", Freshness: 3 * time.Hour},
		{Name: DatasetGrid, OutputFile: "grid.json", Freshness: 12 * time.Hour},
	}, cfg.Datasets())
}

func TestLoad_DatasetsMustNotShareOutputFile(t *testing.T) {
	t.Setenv("PORTS_FILE", "ports.yaml")
	t.Setenv("PORTS_OUTPUT_FILE", "maritime_weather_results.json")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share output file")
}

func TestLoad_ZeroRequestDelayAllowed(t *testing.T) {
	t.Setenv("REQUEST_DELAY", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.RequestDelay)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"FRESHNESS_THRESHOLD", "yesterday"},
		{"FRESHNESS_THRESHOLD", "0s"},
		{"REFRESH_INTERVAL", "-1m"},
		{"FETCH_TIMEOUT", "soon"},
		{"REQUEST_DELAY", "-1s"},
		{"REQUEST_DELAY", "abc"},
		{"WORKERS", "0"},
		{"WORKERS", "many"},
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"PORTS_FRESHNESS_THRESHOLD", "0s"},
		{"CITIES_FRESHNESS_THRESHOLD", "soon"},
		{"GRID_FRESHNESS_THRESHOLD", "-12h"},
		{"GRID_ENABLED", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
