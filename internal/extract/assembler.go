package extract

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
)

var (
	// ErrEmptyInput is returned when a page body is absent or blank.
	ErrEmptyInput = errors.New("empty page body")

	// ErrUnreadable wraps failures reading a page body.
	ErrUnreadable = errors.New("unreadable page body")
)

// Status is the outcome of one assembly.
type Status string

const (
	StatusExtracted Status = "extracted"
	StatusNoData    Status = "no_data"
)

// Result is the outcome of assembling one page. Observation is nil unless
// Status is StatusExtracted. Resolutions lists the resolved fields in
// assembly order regardless of status.
type Result struct {
	Status      Status
	Observation *domain.Observation
	Resolutions []Resolution
}

// Assembler turns one page into an Observation by running the field cascade
// tier by tier. It holds no mutable state and may be shared across goroutines.
type Assembler struct {
	library   Library
	validator *Validator
	minYield  int
	source    string
	types     []string
	logger    *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLibrary replaces the default rule library.
func WithLibrary(l Library) Option {
	return func(a *Assembler) { a.library = l }
}

// WithPolicy replaces the default validator policy.
func WithPolicy(p Policy) Option {
	return func(a *Assembler) { a.validator = NewValidator(p) }
}

// WithMinYield sets how many extracted fields a page needs to count as
// extracted. Values below 1 are raised to 1.
func WithMinYield(n int) Option {
	return func(a *Assembler) {
		if n < 1 {
			n = 1
		}
		a.minYield = n
	}
}

// WithSource sets the source tag stamped on every observation.
func WithSource(s string) Option {
	return func(a *Assembler) { a.source = s }
}

// WithStructuredTypes sets the JSON-LD @type values that are projected.
func WithStructuredTypes(types ...string) Option {
	return func(a *Assembler) { a.types = types }
}

// WithLogger sets the logger used for per-field debug output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// New returns an Assembler with the default library and policy.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		library:   DefaultLibrary(),
		validator: NewValidator(DefaultPolicy()),
		minYield:  1,
		source:    domain.SourceMaritimeHTML,
		types:     DefaultStructuredTypes,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Validator returns the validator the assembler gates candidates with.
func (a *Assembler) Validator() *Validator {
	return a.validator
}

// MinYield returns the configured minimum number of extracted fields.
func (a *Assembler) MinYield() int {
	return a.minYield
}

// AssembleReader reads a page body from r and assembles it.
func (a *Assembler) AssembleReader(areaName, pageURL string, r io.Reader) (Result, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return a.Assemble(domain.Page{AreaName: areaName, URL: pageURL, Body: body})
}

// Assemble extracts an Observation from page. A blank body is an error; a
// page with too few recognizable fields is a StatusNoData result.
func (a *Assembler) Assemble(page domain.Page) (Result, error) {
	text := string(page.Body)
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyInput
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}

	resolved := make(map[Field]Resolution, len(Fields))
	for _, s := range Strategies {
		for _, f := range Fields {
			if _, done := resolved[f]; done {
				continue
			}
			rules := a.library.Rules(f, s)
			if len(rules) == 0 {
				continue
			}
			if r := ExtractField(text, f, rules, a.validator); r.Resolved {
				resolved[f] = r
			}
		}
	}

	obs := &domain.Observation{
		AreaName:    page.AreaName,
		Source:      a.source,
		ExtractedAt: domain.Now(),
	}
	resolutions := make([]Resolution, 0, len(resolved))
	for _, f := range Fields {
		r, ok := resolved[f]
		if !ok {
			continue
		}
		if err := setField(obs, r, page.URL); err != nil {
			a.logger.Warn("discarding resolved field", "area", page.AreaName, "field", f, "error", err)
			continue
		}
		resolutions = append(resolutions, r)
		a.logger.Debug("field resolved",
			"area", page.AreaName,
			"field", f,
			"value", r.Value,
			"rule", r.Rule,
			"strategy", r.Strategy.String(),
		)
	}
	obs.StructuredData = ExtractStructuredData(text, a.types)

	if n := obs.PopulatedFields(); n < a.minYield {
		a.logger.Debug("no data extracted", "area", page.AreaName, "fields", n, "min_yield", a.minYield)
		return Result{Status: StatusNoData, Resolutions: resolutions}, nil
	}
	return Result{Status: StatusExtracted, Observation: obs, Resolutions: resolutions}, nil
}

// setField stores a resolved value on the observation under its field type.
func setField(obs *domain.Observation, r Resolution, pageURL string) error {
	if r.Field.Numeric() {
		v, err := strconv.ParseFloat(r.Value, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", r.Field, err)
		}
		switch r.Field {
		case FieldTemperature:
			obs.Temperature = &v
		case FieldHumidity:
			obs.Humidity = &v
		case FieldWindSpeed:
			obs.WindSpeed = &v
		case FieldWindGust:
			obs.WindGust = &v
		case FieldWaveHeight:
			obs.WaveHeight = &v
		case FieldCurrentSpeed:
			obs.CurrentSpeed = &v
		}
		return nil
	}

	v := r.Value
	switch r.Field {
	case FieldWindDirection:
		obs.WindDirection = &v
	case FieldWaveClassification:
		obs.WaveClassification = &v
	case FieldCurrentDirection:
		obs.CurrentDirection = &v
	case FieldWeatherCondition:
		obs.WeatherCondition = &v
	case FieldWeatherIcon:
		v = resolveIcon(v, pageURL)
		obs.WeatherIcon = &v
	case FieldObservationTime:
		obs.ObservationTime = &v
	case FieldIsCurrent:
		flag := true
		obs.IsCurrent = &flag
	default:
		return fmt.Errorf("unknown field %q", r.Field)
	}
	return nil
}

// resolveIcon makes a relative icon reference absolute against the page URL
// when that URL is known.
func resolveIcon(icon, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return icon
	}
	ref, err := url.Parse(icon)
	if err != nil {
		return icon
	}
	return base.ResolveReference(ref).String()
}
