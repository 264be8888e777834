package catalog

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"gopkg.in/yaml.v3"
)

// currentVariables are the Open-Meteo "current" variables requested for every
// city and grid point.
const currentVariables = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,wind_direction_10m"

// Bounds is an inclusive latitude/longitude box.
type Bounds struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// IndonesiaBounds covers the archipelago at whole-degree resolution.
var IndonesiaBounds = Bounds{LatMin: -11, LatMax: 6, LonMin: 95, LonMax: 141}

// OpenMeteoURL returns the forecast request for the current weather at one point.
func OpenMeteoURL(base string, lat, lon float64) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current", currentVariables)
	q.Set("timezone", "Asia/Jakarta")
	return base + "?" + q.Encode()
}

// City returns the Open-Meteo area for a named city.
func City(base, name string, lat, lon float64) domain.Area {
	return domain.Area{
		Name: name,
		Slug: domain.PortSlug(name),
		URL:  OpenMeteoURL(base, lat, lon),
		Kind: domain.KindCity,
		Lat:  &lat,
		Lon:  &lon,
	}
}

// LoadCitiesFile reads and parses a city coordinate file. See ParseCities.
func LoadCitiesFile(path, base string) ([]domain.Area, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read city catalog: %w", err)
	}
	areas, err := ParseCities(data, base)
	if err != nil {
		return nil, fmt.Errorf("parse city catalog %s: %w", path, err)
	}
	return areas, nil
}

type cityCoords struct {
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
}

// ParseCities decodes an object mapping city names to their coordinates:
//
//	{"Jakarta": {"latitude": -6.2, "longitude": 106.8}}
//
// Cities are returned sorted by name.
func ParseCities(data []byte, base string) ([]domain.Area, error) {
	var cities map[string]cityCoords
	if err := yaml.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("decode cities: %w", err)
	}

	names := make([]string, 0, len(cities))
	for name := range cities {
		names = append(names, name)
	}
	sort.Strings(names)

	areas := make([]domain.Area, 0, len(names))
	for _, name := range names {
		c := cities[name]
		if strings.TrimSpace(name) == "" {
			return nil, errors.New("city name is required")
		}
		if c.Latitude == nil || c.Longitude == nil {
			return nil, fmt.Errorf("city %q: latitude and longitude are required", name)
		}
		areas = append(areas, City(base, strings.TrimSpace(name), *c.Latitude, *c.Longitude))
	}

	if len(areas) == 0 {
		return nil, ErrEmptyCatalog
	}
	return areas, nil
}

// Grid returns one Open-Meteo area per point of a regular grid over b,
// ordered by latitude then longitude.
func Grid(base string, b Bounds, step float64) []domain.Area {
	if step <= 0 {
		return nil
	}
	latN := steps(b.LatMin, b.LatMax, step)
	lonN := steps(b.LonMin, b.LonMax, step)

	areas := make([]domain.Area, 0, latN*lonN)
	for i := range latN {
		lat := b.LatMin + float64(i)*step
		for j := range lonN {
			lon := b.LonMin + float64(j)*step
			areas = append(areas, gridPoint(base, lat, lon))
		}
	}
	return areas
}

func gridPoint(base string, lat, lon float64) domain.Area {
	return domain.Area{
		Name: fmt.Sprintf("Grid %.4f, %.4f", lat, lon),
		Slug: fmt.Sprintf("grid_%.2f_%.2f", lat, lon),
		URL:  OpenMeteoURL(base, lat, lon),
		Kind: domain.KindGrid,
		Lat:  &lat,
		Lon:  &lon,
	}
}

func steps(lo, hi, step float64) int {
	if hi < lo {
		return 0
	}
	return int(math.Floor((hi-lo)/step+1e-9)) + 1
}
