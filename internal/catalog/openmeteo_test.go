package catalog

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOpenMeteo = "https://api.open-meteo.com/v1/forecast"

func TestOpenMeteoURL(t *testing.T) {
	raw := OpenMeteoURL(testOpenMeteo, -6.2, 106.816666)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "api.open-meteo.com", u.Host)
	assert.Equal(t, "/v1/forecast", u.Path)

	q := u.Query()
	assert.Equal(t, "-6.2000", q.Get("latitude"))
	assert.Equal(t, "106.8167", q.Get("longitude"))
	assert.Equal(t, "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,wind_direction_10m", q.Get("current"))
	assert.Equal(t, "Asia/Jakarta", q.Get("timezone"))
}

func TestParseCities(t *testing.T) {
	doc := `{
  "Surabaya": {"latitude": -7.25, "longitude": 112.75},
  "Jakarta": {"latitude": -6.2, "longitude": 106.8}
}`
	areas, err := ParseCities([]byte(doc), testOpenMeteo)
	require.NoError(t, err)
	require.Len(t, areas, 2)

	jakarta := areas[0]
	assert.Equal(t, "Jakarta", jakarta.Name)
	assert.Equal(t, "jakarta", jakarta.Slug)
	assert.Equal(t, domain.KindCity, jakarta.Kind)
	assert.Equal(t, OpenMeteoURL(testOpenMeteo, -6.2, 106.8), jakarta.URL)
	require.NotNil(t, jakarta.Lat)
	assert.InDelta(t, -6.2, *jakarta.Lat, 1e-9)

	assert.Equal(t, "Surabaya", areas[1].Name)
}

func TestParseCities_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"list instead of object", `[{"latitude": 1, "longitude": 2}]`},
		{"missing longitude", `{"Medan": {"latitude": 3.59}}`},
		{"empty object", `{}`},
		{"malformed", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCities([]byte(tt.doc), testOpenMeteo)
			require.Error(t, err)
		})
	}

	_, err := ParseCities([]byte(`{}`), testOpenMeteo)
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestLoadCitiesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "namaKota.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Ambon": {"latitude": -3.7, "longitude": 128.18}}`), 0o644))

	areas, err := LoadCitiesFile(path, testOpenMeteo)
	require.NoError(t, err)
	require.Len(t, areas, 1)
	assert.Equal(t, "ambon", areas[0].Slug)

	_, err = LoadCitiesFile(filepath.Join(t.TempDir(), "missing.json"), testOpenMeteo)
	require.Error(t, err)
}

func TestGrid_Indonesia(t *testing.T) {
	areas := Grid(testOpenMeteo, IndonesiaBounds, 1)
	require.Len(t, areas, 18*47)

	first := areas[0]
	assert.Equal(t, "Grid -11.0000, 95.0000", first.Name)
	assert.Equal(t, "grid_-11.00_95.00", first.Slug)
	assert.Equal(t, domain.KindGrid, first.Kind)
	assert.Equal(t, OpenMeteoURL(testOpenMeteo, -11, 95), first.URL)

	assert.Equal(t, 96.0, *areas[1].Lon)
	assert.Equal(t, -11.0, *areas[1].Lat)

	last := areas[len(areas)-1]
	assert.Equal(t, 6.0, *last.Lat)
	assert.Equal(t, 141.0, *last.Lon)

	seen := make(map[string]bool, len(areas))
	for _, a := range areas {
		assert.False(t, seen[a.URL], "duplicate grid URL %s", a.URL)
		seen[a.URL] = true
	}
}

func TestGrid_FractionalStep(t *testing.T) {
	areas := Grid(testOpenMeteo, Bounds{LatMin: 0, LatMax: 1, LonMin: 0, LonMax: 1}, 0.5)
	require.Len(t, areas, 9)
	assert.Equal(t, 0.5, *areas[4].Lat)
	assert.Equal(t, 0.5, *areas[4].Lon)
}

func TestGrid_InvalidInput(t *testing.T) {
	assert.Empty(t, Grid(testOpenMeteo, IndonesiaBounds, 0))
	assert.Empty(t, Grid(testOpenMeteo, Bounds{LatMin: 1, LatMax: 0, LonMin: 0, LonMax: 1}, 1))
}
