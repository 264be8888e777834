package extract

import (
	"fmt"
	"strconv"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
)

// FieldValues returns the populated observation fields in their string form,
// keyed by field.
func FieldValues(obs *domain.Observation) map[Field]string {
	out := make(map[Field]string, len(Fields))
	num := func(f Field, v *float64) {
		if v != nil {
			out[f] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	str := func(f Field, v *string) {
		if v != nil {
			out[f] = *v
		}
	}

	num(FieldTemperature, obs.Temperature)
	num(FieldHumidity, obs.Humidity)
	num(FieldWindSpeed, obs.WindSpeed)
	num(FieldWindGust, obs.WindGust)
	str(FieldWindDirection, obs.WindDirection)
	num(FieldWaveHeight, obs.WaveHeight)
	str(FieldWaveClassification, obs.WaveClassification)
	num(FieldCurrentSpeed, obs.CurrentSpeed)
	str(FieldCurrentDirection, obs.CurrentDirection)
	str(FieldWeatherCondition, obs.WeatherCondition)
	str(FieldWeatherIcon, obs.WeatherIcon)
	str(FieldObservationTime, obs.ObservationTime)
	if obs.IsCurrent != nil {
		out[FieldIsCurrent] = strconv.FormatBool(*obs.IsCurrent)
	}
	return out
}

// Audit re-checks a persisted observation against the validator and the
// minimum yield. It returns one problem per violation; nil means the
// observation is consistent with what Assemble would have produced.
func Audit(obs *domain.Observation, v *Validator, minYield int) []string {
	if obs == nil {
		return []string{"observation is missing"}
	}

	var problems []string
	if obs.AreaName == "" {
		problems = append(problems, "area_name is empty")
	}
	if obs.Source == "" {
		problems = append(problems, "source is empty")
	}
	if obs.ExtractedAt.IsZero() {
		problems = append(problems, "extracted_at is not set")
	}

	values := FieldValues(obs)
	for _, f := range Fields {
		value, ok := values[f]
		if !ok {
			continue
		}
		if f == FieldIsCurrent {
			if value != "true" {
				problems = append(problems, "is_current must be true when present")
			}
			continue
		}
		canonical := v.Canonical(f, value)
		switch {
		case canonical == "":
			problems = append(problems, fmt.Sprintf("%s %q is rejected by the policy", f, value))
		case f.Numeric():
			want, _ := strconv.ParseFloat(canonical, 64)
			got, _ := strconv.ParseFloat(value, 64)
			if want != got {
				problems = append(problems, fmt.Sprintf("%s %q is not canonical", f, value))
			}
		case canonical != value:
			problems = append(problems, fmt.Sprintf("%s %q is not canonical (want %q)", f, value, canonical))
		}
	}

	if n := obs.PopulatedFields(); n < minYield {
		problems = append(problems, fmt.Sprintf("only %d fields populated, minimum is %d", n, minYield))
	}
	return problems
}
