// Package catalog builds the list of areas a batch visits, either from the
// flat arrays the BMKG map widgets embed or from a curated YAML/JSON list.
// Open-Meteo city and grid datasets are built from coordinates.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrEmptyCatalog is returned when a catalog yields no areas.
var ErrEmptyCatalog = errors.New("catalog contains no areas")

// LoadFile reads and parses a catalog file. See Parse.
func LoadFile(path string) ([]domain.Area, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	areas, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return areas, nil
}

// Parse accepts either a curated list of area objects or a flat BMKG array
// mixing names, ids, coordinates and nested objects. YAML and JSON are both
// accepted. Areas are returned in document order with duplicate URLs removed.
func Parse(data []byte) ([]domain.Area, error) {
	var items []any
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	var areas []domain.Area
	if curated(items) {
		if err := yaml.Unmarshal(data, &areas); err != nil {
			return nil, fmt.Errorf("decode areas: %w", err)
		}
		for i := range areas {
			if strings.TrimSpace(areas[i].Name) == "" {
				return nil, fmt.Errorf("area %d: name is required", i)
			}
			areas[i] = complete(areas[i])
		}
	} else {
		areas = FromFlat(items)
	}

	areas = dedupe(areas)
	if len(areas) == 0 {
		return nil, ErrEmptyCatalog
	}
	return areas, nil
}

// FromFlat scans a flat array. A string naming a port ("Pelabuhan ...")
// immediately followed by two numbers becomes a port with those coordinates;
// any other string containing "Perairan" becomes a maritime area.
func FromFlat(items []any) []domain.Area {
	var areas []domain.Area
	for i, item := range items {
		name, ok := item.(string)
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)

		if strings.Contains(name, "Pelabuhan") && i+2 < len(items) {
			lat, latOK := number(items[i+1])
			lon, lonOK := number(items[i+2])
			if latOK && lonOK {
				areas = append(areas, Port(name, lat, lon))
				continue
			}
		}
		if strings.Contains(name, "Perairan") {
			areas = append(areas, Maritime(name))
		}
	}
	return areas
}

// Maritime returns the area for a named maritime forecast zone.
func Maritime(name string) domain.Area {
	slug := domain.MaritimeSlug(name)
	return domain.Area{
		Name: name,
		Slug: slug,
		URL:  domain.MaritimeURL(slug),
		Kind: domain.KindMaritime,
	}
}

// Port returns the area for a named port at the given coordinates.
func Port(name string, lat, lon float64) domain.Area {
	slug := domain.PortSlug(name)
	return domain.Area{
		Name: name,
		Slug: slug,
		URL:  domain.PortURL(slug),
		Kind: domain.KindPort,
		Lat:  &lat,
		Lon:  &lon,
	}
}

// complete fills in kind, slug and URL for curated entries that omit them.
func complete(a domain.Area) domain.Area {
	a.Name = strings.TrimSpace(a.Name)
	if a.Kind == "" {
		a.Kind = domain.KindMaritime
		if strings.Contains(a.URL, "/api/pelabuhan") ||
			(a.URL == "" && strings.Contains(a.Name, "Pelabuhan") && !strings.Contains(a.Name, "Perairan")) {
			a.Kind = domain.KindPort
		}
	}
	if a.Slug == "" {
		if a.Kind == domain.KindPort {
			a.Slug = domain.PortSlug(a.Name)
		} else {
			a.Slug = domain.MaritimeSlug(a.Name)
		}
	}
	if a.URL == "" {
		if a.Kind == domain.KindPort {
			a.URL = domain.PortURL(a.Slug)
		} else {
			a.URL = domain.MaritimeURL(a.Slug)
		}
	}
	return a
}

func curated(items []any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if _, ok := item.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func dedupe(areas []domain.Area) []domain.Area {
	seen := make(map[string]struct{}, len(areas))
	out := areas[:0]
	for _, a := range areas {
		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
