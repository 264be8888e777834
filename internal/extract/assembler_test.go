package extract

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
)

const sabangURL = "https://maritim.bmkg.go.id/cuaca/perairan/perairan-sabang-banda-aceh"

var fixedNow = time.Date(2024, 8, 12, 0, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAssembler(opts ...Option) *Assembler {
	return New(append([]Option{WithLogger(discardLogger())}, opts...)...)
}

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func htmlPage(area, body string) domain.Page {
	return domain.Page{AreaName: area, Body: []byte("<html><body>" + body + "</body></html>")}
}

func loadFixture(t *testing.T) domain.Page {
	t.Helper()
	body, err := os.ReadFile("testdata/perairan-sabang-banda-aceh.html")
	require.NoError(t, err)
	return domain.Page{AreaName: "Perairan Sabang - Banda Aceh", URL: sabangURL, Body: body}
}

func TestAssemble_BasicScenario(t *testing.T) {
	freezeClock(t)
	a := newTestAssembler()

	res, err := a.Assemble(htmlPage("Perairan Utara Serang",
		`<table><tr><td>25°C</td><td>80%</td><td>12 kt</td><td>Barat Daya</td><td>1.5 m</td></tr></table>`))
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)

	obs := res.Observation
	require.NotNil(t, obs)
	assert.Equal(t, "Perairan Utara Serang", obs.AreaName)
	assert.Equal(t, domain.SourceMaritimeHTML, obs.Source)
	assert.Equal(t, fixedNow, obs.ExtractedAt)
	require.NotNil(t, obs.Temperature)
	assert.InDelta(t, 25.0, *obs.Temperature, 1e-9)
	require.NotNil(t, obs.Humidity)
	assert.InDelta(t, 80.0, *obs.Humidity, 1e-9)
	require.NotNil(t, obs.WindSpeed)
	assert.InDelta(t, 12.0, *obs.WindSpeed, 1e-9)
	require.NotNil(t, obs.WindDirection)
	assert.Equal(t, "Barat Daya", *obs.WindDirection)
	require.NotNil(t, obs.WaveHeight)
	assert.InDelta(t, 1.5, *obs.WaveHeight, 1e-9)

	assert.Nil(t, obs.WindGust)
	assert.Nil(t, obs.ObservationTime)
	assert.Nil(t, obs.StructuredData)
}

func TestAssemble_PlainTextScenario(t *testing.T) {
	a := newTestAssembler()

	res, err := a.Assemble(htmlPage("Perairan Utara Serang",
		`<p>Suhu 25°C, kelembaban 80%, angin 12 kt dari Barat Daya, gelombang 1.5 m</p>`))
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)

	obs := res.Observation
	assertFloat(t, 25, obs.Temperature)
	assertFloat(t, 80, obs.Humidity)
	assertFloat(t, 12, obs.WindSpeed)
	assertString(t, "Barat Daya", obs.WindDirection)
	assertFloat(t, 1.5, obs.WaveHeight)
}

func TestAssemble_TemperatureRangeUsesUpperBound(t *testing.T) {
	a := newTestAssembler()

	for _, body := range []string{
		`<td>24-30°C</td>`,
		`<p>Suhu udara 24-30 °C</p>`,
		`<p>Suhu: 24 - 30</p>`,
	} {
		t.Run(body, func(t *testing.T) {
			res, err := a.Assemble(htmlPage("x", body))
			require.NoError(t, err)
			require.Equal(t, StatusExtracted, res.Status)
			assertFloat(t, 30, res.Observation.Temperature)
		})
	}
}

func TestAssemble_SixteenPointDirection(t *testing.T) {
	a := newTestAssembler()

	res, err := a.Assemble(htmlPage("x", `<td>Utara Timur Laut</td>`))
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)
	assertString(t, "Utara Timur Laut", res.Observation.WindDirection)

	res, err = a.Assemble(htmlPage("x", `<p>Arah Angin: Barat-Daya</p>`))
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)
	assertString(t, "Barat Daya", res.Observation.WindDirection)
}

func TestAssemble_OutOfRangeHumidityIsAbsent(t *testing.T) {
	a := newTestAssembler()

	res, err := a.Assemble(htmlPage("x", `<td>25°C</td><td>333333%</td>`))
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)
	assert.Nil(t, res.Observation.Humidity)

	res, err = a.Assemble(htmlPage("x", `<td>25°C</td><td>333333%</td><td>75%</td>`))
	require.NoError(t, err)
	require.NotNil(t, res.Observation.Humidity)
	assert.InDelta(t, 75.0, *res.Observation.Humidity, 1e-9)
}

func TestAssemble_PlaceNameIsNotADirection(t *testing.T) {
	a := newTestAssembler()

	for name, body := range map[string]string{
		"heading":   `<h1>Perairan Barat Aceh</h1><td>28°C</td>`,
		"cell":      `<td>Perairan Barat Aceh</td><td>28°C</td>`,
		"attribute": `<a title="Perairan Barat Aceh" href="/x">x</a><td>28°C</td>`,
	} {
		t.Run(name, func(t *testing.T) {
			res, err := a.Assemble(htmlPage("Perairan Barat Aceh", body))
			require.NoError(t, err)
			require.Equal(t, StatusExtracted, res.Status)
			assert.Nil(t, res.Observation.WindDirection)
			assert.Nil(t, res.Observation.CurrentDirection)
		})
	}
}

func TestAssemble_StructuredData(t *testing.T) {
	a := newTestAssembler()

	res, err := a.Assemble(domain.Page{AreaName: "x", Body: []byte(page(forecastBlock))})
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)
	require.NotNil(t, res.Observation.StructuredData)
	assert.Equal(t, "BMKG", res.Observation.StructuredData.Provider)
	assert.Equal(t, "Perairan Sabang", res.Observation.StructuredData.Location)

	res, err = a.Assemble(htmlPage("x",
		`<script type="application/ld+json">{"@type":"Organization","name":"BMKG"}</script><td>25°C</td>`))
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)
	assert.Nil(t, res.Observation.StructuredData)
}

func TestAssemble_EarlierStrategyWins(t *testing.T) {
	a := newTestAssembler()

	res, err := a.Assemble(htmlPage("x", `<div class="wind-direction">Timur</div><p>Angin Dari: Utara</p>`))
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)
	require.NotNil(t, res.Observation.WindDirection)
	assert.Equal(t, "Timur", *res.Observation.WindDirection)

	require.NotEmpty(t, res.Resolutions)
	assert.Equal(t, FieldWindDirection, res.Resolutions[0].Field)
	assert.Equal(t, StrategyMarkup, res.Resolutions[0].Strategy)
	assert.Equal(t, "wind-class", res.Resolutions[0].Rule)
}

func TestAssemble_StrategyOrderBeatsDeclarationOrder(t *testing.T) {
	lib := Library{
		FieldWindDirection: {
			testRule("a-cells", StrategyCells, `A:\s*(\w+)`),
			testRule("b-markup", StrategyMarkup, `B:\s*(\w+)`),
		},
	}
	a := newTestAssembler(WithLibrary(lib))

	res, err := a.Assemble(domain.Page{AreaName: "x", Body: []byte("A: Utara B: Selatan")})
	require.NoError(t, err)
	require.NotNil(t, res.Observation)
	assert.Equal(t, "Selatan", *res.Observation.WindDirection)
	assert.Equal(t, []Resolution{{
		Field:    FieldWindDirection,
		Value:    "Selatan",
		Rule:     "b-markup",
		Strategy: StrategyMarkup,
		Resolved: true,
	}}, res.Resolutions)
}

func TestAssemble_StrayNumberIsNotATime(t *testing.T) {
	a := newTestAssembler()

	res, err := a.Assemble(htmlPage("x", `<td>25°C</td><td>99.99</td>`))
	require.NoError(t, err)
	assert.Nil(t, res.Observation.ObservationTime)

	res, err = a.Assemble(htmlPage("x", `<td>25°C</td><td>99.99</td><td>07.30</td>`))
	require.NoError(t, err)
	require.NotNil(t, res.Observation.ObservationTime)
	assert.Equal(t, "07.30", *res.Observation.ObservationTime)
}

func TestAssemble_MinimumYield(t *testing.T) {
	t.Run("bookkeeping only is no data", func(t *testing.T) {
		res, err := newTestAssembler().Assemble(htmlPage("x", "<p>Halo</p>"))
		require.NoError(t, err)
		assert.Equal(t, StatusNoData, res.Status)
		assert.Nil(t, res.Observation)
		assert.Empty(t, res.Resolutions)
	})

	t.Run("configured threshold", func(t *testing.T) {
		a := newTestAssembler(WithMinYield(3))
		res, err := a.Assemble(htmlPage("x", "<td>25°C</td><td>80%</td>"))
		require.NoError(t, err)
		assert.Equal(t, StatusNoData, res.Status)
		assert.Nil(t, res.Observation)
		assert.Len(t, res.Resolutions, 2)

		res, err = a.Assemble(htmlPage("x", "<td>25°C</td><td>80%</td><td>12 kt</td>"))
		require.NoError(t, err)
		assert.Equal(t, StatusExtracted, res.Status)
	})

	t.Run("threshold below one is raised", func(t *testing.T) {
		a := newTestAssembler(WithMinYield(0))
		assert.Equal(t, 1, a.MinYield())
	})
}

func TestAssemble_Fixture(t *testing.T) {
	freezeClock(t)
	a := newTestAssembler()

	res, err := a.Assemble(loadFixture(t))
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)

	obs := res.Observation
	assertFloat(t, 27, obs.Temperature)
	assertFloat(t, 78, obs.Humidity)
	assertFloat(t, 15, obs.WindSpeed)
	assertFloat(t, 20, obs.WindGust)
	assertString(t, "Barat Daya", obs.WindDirection)
	assertFloat(t, 1.25, obs.WaveHeight)
	assertString(t, "Rendah", obs.WaveClassification)
	assertFloat(t, 15, obs.CurrentSpeed)
	assertString(t, "Timur Laut", obs.CurrentDirection)
	assertString(t, "Berawan", obs.WeatherCondition)
	assertString(t, "https://maritim.bmkg.go.id/images/icons/berawan.svg", obs.WeatherIcon)
	assertString(t, "12 Agu 24, 07.00 WIB", obs.ObservationTime)
	require.NotNil(t, obs.IsCurrent)
	assert.True(t, *obs.IsCurrent)

	require.NotNil(t, obs.StructuredData)
	assert.Equal(t, "Prakiraan Cuaca Perairan Sabang - Banda Aceh", obs.StructuredData.ForecastName)
	assert.Equal(t, "Perairan Sabang - Banda Aceh", obs.StructuredData.Location)

	assert.Len(t, res.Resolutions, len(Fields))
	assert.Equal(t, 14, obs.PopulatedFields())
}

func TestAssemble_Idempotent(t *testing.T) {
	freezeClock(t)
	a := newTestAssembler()
	p := loadFixture(t)

	first, err := a.Assemble(p)
	require.NoError(t, err)
	second, err := a.Assemble(p)
	require.NoError(t, err)

	b1, err := json.Marshal(first.Observation)
	require.NoError(t, err)
	b2, err := json.Marshal(second.Observation)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
	assert.Equal(t, first.Resolutions, second.Resolutions)
}

func TestAssemble_ConcurrentCalls(t *testing.T) {
	freezeClock(t)
	a := newTestAssembler()
	p := loadFixture(t)

	want, err := a.Assemble(p)
	require.NoError(t, err)

	const workers = 8
	results := make([]Result, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = a.Assemble(p)
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestAssemble_RelativeIconWithoutPageURL(t *testing.T) {
	res, err := newTestAssembler().Assemble(htmlPage("x", `<img class="weather-icon" src="/icons/cerah.svg">`))
	require.NoError(t, err)
	assertString(t, "/icons/cerah.svg", res.Observation.WeatherIcon)
}

func TestAssemble_EmptyInput(t *testing.T) {
	a := newTestAssembler()

	for _, body := range []string{"", "   \n\t "} {
		_, err := a.Assemble(domain.Page{AreaName: "x", Body: []byte(body)})
		require.ErrorIs(t, err, ErrEmptyInput)
	}
}

func TestAssemble_RepairsInvalidUTF8(t *testing.T) {
	res, err := newTestAssembler().Assemble(domain.Page{AreaName: "x", Body: []byte("<td>25°C</td>\xff\xfe<td>Cerah</td>")})
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)
	assertFloat(t, 25, res.Observation.Temperature)
	assertString(t, "Cerah", res.Observation.WeatherCondition)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestAssembleReader(t *testing.T) {
	a := newTestAssembler()

	res, err := a.AssembleReader("x", "", strings.NewReader("<td>25°C</td>"))
	require.NoError(t, err)
	assert.Equal(t, StatusExtracted, res.Status)

	_, err = a.AssembleReader("x", "", failingReader{})
	require.ErrorIs(t, err, ErrUnreadable)
	assert.Contains(t, err.Error(), "connection reset")

	_, err = a.AssembleReader("x", "", strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestNew_Options(t *testing.T) {
	p := DefaultPolicy()
	p.Limits[FieldTemperature] = Range{Min: 0, Max: 20}

	a := newTestAssembler(WithPolicy(p), WithSource("test source"), WithStructuredTypes())
	res, err := a.Assemble(domain.Page{AreaName: "x", Body: []byte(page(forecastBlock) + "<td>25°C</td><td>80%</td>")})
	require.NoError(t, err)
	require.Equal(t, StatusExtracted, res.Status)

	assert.Equal(t, "test source", res.Observation.Source)
	assert.Nil(t, res.Observation.Temperature)
	assert.Nil(t, res.Observation.StructuredData)
	assert.False(t, a.Validator().Validate(FieldTemperature, "25"))
}

func assertFloat(t *testing.T, want float64, got *float64) {
	t.Helper()
	if assert.NotNil(t, got) {
		assert.InDelta(t, want, *got, 1e-9)
	}
}

func assertString(t *testing.T, want string, got *string) {
	t.Helper()
	if assert.NotNil(t, got) {
		assert.Equal(t, want, *got)
	}
}
