package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
)

// DefaultStructuredTypes lists the schema.org types projected into
// Observation.StructuredData.
var DefaultStructuredTypes = []string{"WeatherForecast"}

// ExtractStructuredData returns the projection of the first JSON-LD node whose
// @type is in types, or nil. Blocks that do not decode are skipped.
func ExtractStructuredData(text string, types []string) *domain.StructuredData {
	if len(types) == 0 || !strings.Contains(strings.ToLower(text), "application/ld+json") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil
	}

	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	var found *domain.StructuredData
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		typ, _ := s.Attr("type")
		if !strings.EqualFold(strings.TrimSpace(typ), "application/ld+json") {
			return true
		}
		var block any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &block); err != nil {
			return true
		}
		if node := findNode(block, want); node != nil {
			found = project(node)
			return false
		}
		return true
	})
	return found
}

// findNode walks a decoded JSON-LD value (object, array, or @graph) and
// returns the first object of a wanted type.
func findNode(v any, want map[string]bool) map[string]any {
	switch n := v.(type) {
	case map[string]any:
		if hasType(n["@type"], want) {
			return n
		}
		if graph, ok := n["@graph"]; ok {
			return findNode(graph, want)
		}
	case []any:
		for _, item := range n {
			if node := findNode(item, want); node != nil {
				return node
			}
		}
	}
	return nil
}

func hasType(v any, want map[string]bool) bool {
	switch t := v.(type) {
	case string:
		return want[t]
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && want[s] {
				return true
			}
		}
	}
	return false
}

func project(node map[string]any) *domain.StructuredData {
	return &domain.StructuredData{
		ForecastName: str(node["name"]),
		Provider:     nameOf(node["provider"]),
		ValidFrom:    str(node["validFrom"]),
		ValidTo:      str(node["validTo"]),
		DateIssued:   str(node["dateIssued"]),
		Location:     nameOf(node["location"]),
	}
}

// nameOf reads the name of a nested object, accepting a bare string as well.
func nameOf(v any) string {
	if obj, ok := v.(map[string]any); ok {
		return str(obj["name"])
	}
	return str(v)
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
