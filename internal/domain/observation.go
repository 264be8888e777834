package domain

import (
	"encoding/json"
	"time"
)

// SourceMaritimeHTML tags observations extracted from BMKG maritime area pages.
const SourceMaritimeHTML = "BMKG Maritime HTML"

// AreaKind distinguishes the page families the collector visits.
type AreaKind string

const (
	KindMaritime AreaKind = "maritime" // HTML area page under /cuaca/perairan/
	KindPort     AreaKind = "port"     // JSON endpoint under /api/pelabuhan
	KindCity     AreaKind = "city"     // Open-Meteo current weather at a city
	KindGrid     AreaKind = "grid"     // Open-Meteo current weather at a grid point
)

// Area is one location the batch visits.
type Area struct {
	Name string   `json:"name" yaml:"name"`
	Slug string   `json:"slug" yaml:"slug"`
	URL  string   `json:"url" yaml:"url"`
	Kind AreaKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Lat  *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`
}

// Page is a retrieved response body plus the transport metadata the
// coordinator needs to route it.
type Page struct {
	AreaName    string
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// StructuredData is the projection of an embedded WeatherForecast JSON-LD block.
type StructuredData struct {
	ForecastName string `json:"forecast_name"`
	Provider     string `json:"provider"`
	ValidFrom    string `json:"valid_from"`
	ValidTo      string `json:"valid_to"`
	DateIssued   string `json:"date_issued"`
	Location     string `json:"location"`
}

// Observation is the normalized weather record extracted from one page.
// Optional fields are pointers so that an absent value is omitted from JSON
// instead of being written as a zero.
type Observation struct {
	AreaName    string    `json:"area_name"`
	Source      string    `json:"source"`
	ExtractedAt time.Time `json:"extracted_at"`

	Temperature        *float64 `json:"temperature,omitempty"`
	Humidity           *float64 `json:"humidity,omitempty"`
	WindSpeed          *float64 `json:"wind_speed,omitempty"`
	WindGust           *float64 `json:"wind_gust,omitempty"`
	WindDirection      *string  `json:"wind_direction,omitempty"`
	WaveHeight         *float64 `json:"wave_height,omitempty"`
	WaveClassification *string  `json:"wave_classification,omitempty"`
	CurrentSpeed       *float64 `json:"current_speed,omitempty"`
	CurrentDirection   *string  `json:"current_direction,omitempty"`
	WeatherCondition   *string  `json:"weather_condition,omitempty"`
	WeatherIcon        *string  `json:"weather_icon,omitempty"`
	ObservationTime    *string  `json:"observation_time,omitempty"`
	IsCurrent          *bool    `json:"is_current,omitempty"`

	StructuredData *StructuredData `json:"structured_data,omitempty"`
}

// PopulatedFields counts the extracted fields that are present, excluding
// the three bookkeeping fields (area name, source, extraction time).
func (o *Observation) PopulatedFields() int {
	n := 0
	for _, present := range []bool{
		o.Temperature != nil,
		o.Humidity != nil,
		o.WindSpeed != nil,
		o.WindGust != nil,
		o.WindDirection != nil,
		o.WaveHeight != nil,
		o.WaveClassification != nil,
		o.CurrentSpeed != nil,
		o.CurrentDirection != nil,
		o.WeatherCondition != nil,
		o.WeatherIcon != nil,
		o.ObservationTime != nil,
		o.IsCurrent != nil,
		o.StructuredData != nil,
	} {
		if present {
			n++
		}
	}
	return n
}

// Status is the per-area outcome recorded by the batch coordinator.
type Status string

const (
	StatusSuccess Status = "success" // observation extracted or JSON passed through
	StatusNoData  Status = "no_data" // page parsed but nothing recognizable was found
	StatusFailed  Status = "failed"  // non-200 response or undecodable JSON
	StatusError   Status = "error"   // transport failure or unreadable input
)

// AreaResult is the persisted outcome for one area in a batch run.
type AreaResult struct {
	AreaName    string          `json:"area_name"`
	Slug        string          `json:"slug"`
	URL         string          `json:"url"`
	Kind        AreaKind        `json:"kind,omitempty"`
	WeatherData *Observation    `json:"weather_data"`
	RawData     json.RawMessage `json:"raw_data,omitempty"`
	Status      Status          `json:"status"`
	Error       string          `json:"error,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Summary tallies batch outcomes by status.
type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	NoData  int `json:"no_data"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
}

// Add counts one result.
func (s *Summary) Add(r AreaResult) {
	s.Total++
	switch r.Status {
	case StatusSuccess:
		s.Success++
	case StatusNoData:
		s.NoData++
	case StatusFailed:
		s.Failed++
	case StatusError:
		s.Errored++
	}
}

// SuccessRate returns the fraction of successful results, or 0 for an empty batch.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total)
}
