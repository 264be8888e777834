package extract

import (
	"testing"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAudit_FixtureObservationPasses(t *testing.T) {
	freezeClock(t)
	a := newTestAssembler()

	res, err := a.Assemble(loadFixture(t))
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)

	assert.Empty(t, Audit(res.Observation, a.Validator(), a.MinYield()))
}

func TestAudit_Violations(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	base := func() *domain.Observation {
		return &domain.Observation{
			AreaName:    "Perairan Sabang",
			Source:      domain.SourceMaritimeHTML,
			ExtractedAt: fixedNow,
			Temperature: ptr(27.0),
		}
	}

	tests := []struct {
		name   string
		mutate func(o *domain.Observation)
		want   string
	}{
		{"humidity out of range", func(o *domain.Observation) { o.Humidity = ptr(333333.0) }, "humidity"},
		{"unknown direction", func(o *domain.Observation) { o.WindDirection = ptr("Aceh") }, "wind_direction"},
		{"non-canonical direction", func(o *domain.Observation) { o.WindDirection = ptr("southwest") }, "not canonical"},
		{"bad time", func(o *domain.Observation) { o.ObservationTime = ptr("99.99") }, "observation_time"},
		{"false flag", func(o *domain.Observation) { o.IsCurrent = ptr(false) }, "is_current"},
		{"missing source", func(o *domain.Observation) { o.Source = "" }, "source"},
		{"below yield", func(o *domain.Observation) { o.Temperature = nil }, "minimum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := base()
			tt.mutate(obs)

			problems := Audit(obs, v, 1)
			require.NotEmpty(t, problems)
			assert.Contains(t, problems[0], tt.want)
		})
	}

	assert.Empty(t, Audit(base(), v, 1))
	assert.Equal(t, []string{"observation is missing"}, Audit(nil, v, 1))
}

func TestFieldValues(t *testing.T) {
	values := FieldValues(&domain.Observation{
		WindSpeed:     ptr(15.0),
		WaveHeight:    ptr(1.25),
		WindDirection: ptr("Barat Daya"),
		IsCurrent:     ptr(true),
	})

	assert.Equal(t, map[Field]string{
		FieldWindSpeed:     "15",
		FieldWaveHeight:    "1.25",
		FieldWindDirection: "Barat Daya",
		FieldIsCurrent:     "true",
	}, values)
}
