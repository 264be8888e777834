package extract

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Field identifies one extractable observation attribute. Values match the
// JSON keys of domain.Observation.
type Field string

const (
	FieldTemperature        Field = "temperature"
	FieldHumidity           Field = "humidity"
	FieldWindSpeed          Field = "wind_speed"
	FieldWindGust           Field = "wind_gust"
	FieldWindDirection      Field = "wind_direction"
	FieldWaveHeight         Field = "wave_height"
	FieldWaveClassification Field = "wave_classification"
	FieldCurrentSpeed       Field = "current_speed"
	FieldCurrentDirection   Field = "current_direction"
	FieldWeatherCondition   Field = "weather_condition"
	FieldWeatherIcon        Field = "weather_icon"
	FieldObservationTime    Field = "observation_time"
	FieldIsCurrent          Field = "is_current"
)

// Fields lists every extractable field in assembly order.
var Fields = []Field{
	FieldTemperature,
	FieldHumidity,
	FieldWindSpeed,
	FieldWindGust,
	FieldWindDirection,
	FieldWaveHeight,
	FieldWaveClassification,
	FieldCurrentSpeed,
	FieldCurrentDirection,
	FieldWeatherCondition,
	FieldWeatherIcon,
	FieldObservationTime,
	FieldIsCurrent,
}

// kind selects the validator profile applied to a field.
type kind int

const (
	kindNumeric kind = iota
	kindDirection
	kindCondition
	kindWaveClass
	kindTime
	kindIcon
	kindFlag
)

var fieldKinds = map[Field]kind{
	FieldTemperature:        kindNumeric,
	FieldHumidity:           kindNumeric,
	FieldWindSpeed:          kindNumeric,
	FieldWindGust:           kindNumeric,
	FieldWindDirection:      kindDirection,
	FieldWaveHeight:         kindNumeric,
	FieldWaveClassification: kindWaveClass,
	FieldCurrentSpeed:       kindNumeric,
	FieldCurrentDirection:   kindDirection,
	FieldWeatherCondition:   kindCondition,
	FieldWeatherIcon:        kindIcon,
	FieldObservationTime:    kindTime,
	FieldIsCurrent:          kindFlag,
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	_, ok := fieldKinds[f]
	return ok
}

// Numeric reports whether f holds a number.
func (f Field) Numeric() bool {
	k, ok := fieldKinds[f]
	return ok && k == kindNumeric
}

// Resolution is the outcome of the cascade for one field. An unresolved
// field has Resolved == false and every other member zero.
type Resolution struct {
	Field    Field
	Value    string
	Rule     string
	Strategy Strategy
	Resolved bool
}

// MatchAll returns every capture of the rule's group in source order.
// Duplicates are kept.
func MatchAll(r Rule, text string) []string {
	matches := r.Pattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if r.Group < len(m) {
			out = append(out, m[r.Group])
		}
	}
	return out
}

// ExtractField runs rules against text in order and returns the first
// candidate the validator accepts. Later rules are not consulted once one
// yields an accepted candidate.
func ExtractField(text string, field Field, rules []Rule, v *Validator) Resolution {
	for _, r := range rules {
		for _, raw := range MatchAll(r, text) {
			candidate := cleanCandidate(raw)
			if field.Numeric() && r.Scale != 0 && r.Scale != 1 {
				scaled, ok := applyScale(candidate, r.Scale)
				if !ok {
					continue
				}
				candidate = scaled
			}
			if value, ok := v.Accept(field, candidate); ok {
				return Resolution{
					Field:    field,
					Value:    value,
					Rule:     r.Name,
					Strategy: r.Strategy,
					Resolved: true,
				}
			}
		}
	}
	return Resolution{Field: field}
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// cleanCandidate strips residual tags, decodes entities and collapses whitespace.
func cleanCandidate(raw string) string {
	s := tagRe.ReplaceAllString(raw, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// applyScale converts a numeric candidate into the field's canonical unit,
// rounded to two decimals.
func applyScale(candidate string, scale float64) (string, bool) {
	v, err := strconv.ParseFloat(candidate, 64)
	if err != nil {
		return "", false
	}
	v = math.Round(v*scale*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64), true
}
