package extract

import "regexp"

// Strategy is an extraction tier. Lower values are tried first: structural
// markup hints, then localized labels and units, then embedded script data,
// and finally the generic table cell sweep.
type Strategy int

const (
	StrategyMarkup Strategy = iota
	StrategyLabel
	StrategyScript
	StrategyCells
)

// Strategies lists the tiers in cascade order.
var Strategies = []Strategy{StrategyMarkup, StrategyLabel, StrategyScript, StrategyCells}

func (s Strategy) String() string {
	switch s {
	case StrategyMarkup:
		return "markup"
	case StrategyLabel:
		return "label"
	case StrategyScript:
		return "script"
	case StrategyCells:
		return "cells"
	default:
		return "unknown"
	}
}

// Rule is one recognition pattern. Group selects the capture that holds the
// candidate. Scale, when neither 0 nor 1, multiplies numeric candidates into
// the field's canonical unit before validation.
type Rule struct {
	Name     string
	Strategy Strategy
	Pattern  *regexp.Regexp
	Group    int
	Scale    float64
}

// Library maps each field to its recognition rules.
type Library map[Field][]Rule

// Rules returns the rules for field f in tier s, in declaration order.
func (l Library) Rules(f Field, s Strategy) []Rule {
	var out []Rule
	for _, r := range l[f] {
		if r.Strategy == s {
			out = append(out, r)
		}
	}
	return out
}

func rule(name string, s Strategy, expr string) Rule {
	return Rule{Name: name, Strategy: s, Pattern: regexp.MustCompile(expr), Group: 1, Scale: 1}
}

func scaled(r Rule, factor float64) Rule {
	r.Scale = factor
	return r
}

const (
	knotsPerKmh = 0.539957
	knotsPerMs  = 1.943844
	cmsPerMs    = 100.0
)

const (
	number        = `(-?\d+(?:\.\d+)?)`
	unsigned      = `(\d+(?:\.\d+)?)`
	compassWords  = `(?:Tenggara|Barat Laut|Barat Daya|Timur Laut|Barat|Timur|Utara|Selatan)`
	compassValue  = `([A-Za-z][A-Za-z _-]*)`
	labelValue    = `([^<>\n,;:|\d]+)`
	markupCapture = `[^>]*>([^<>\n]+)</`

	// sep skips label punctuation and the table or span tags between a
	// header cell and its value cell.
	sep = `(?:[:\s]|</?(?:th|td|span)[^>]*>)*`

	// rangeLower skips the lower bound of a "0.5 - 1.25" range.
	rangeLower = `(?:\d+(?:\.\d+)?\s*[-–]\s*)?`
)

// cellRules are the generic cell sweeps shared by every text field.
var cellRules = []Rule{
	rule("aligned-cell", StrategyCells, `(?i)<td[^>]*class="[^"]*text-(?:center|left|right)[^"]*"[^>]*>([^<>\n]+)</td>`),
	rule("text-span", StrategyCells, `(?i)<span[^>]*class="[^"]*text-[^"]*"[^>]*>([^<>\n]+)</span>`),
	rule("any-cell", StrategyCells, `(?i)<td[^>]*>([^<>\n]+)</td>`),
}

func withCells(rules ...Rule) []Rule {
	return append(rules, cellRules...)
}

// DefaultLibrary returns the rule set tuned for BMKG maritime area pages.
func DefaultLibrary() Library {
	return Library{
		FieldTemperature: {
			rule("temp-class", StrategyMarkup, `(?i)class="[^"]*(?:temp|suhu)[^"]*"[^>]*>\s*`+rangeLower+number),
			rule("suhu-label", StrategyLabel, `(?i)\bSuhu`+sep+rangeLower+number),
			rule("degree-celsius", StrategyLabel, `(?i)`+rangeLower+number+`\s*(?:°|&deg;|&#176;)\s*C`),
			rule("celsius-word", StrategyLabel, `(?i)`+rangeLower+number+`\s*(?:derajat|celcius|celsius)`),
		},
		FieldHumidity: {
			rule("humidity-class", StrategyMarkup, `(?i)class="[^"]*(?:humid|kelembaban)[^"]*"[^>]*>\s*`+unsigned),
			rule("kelembaban-label", StrategyLabel, `(?i)\bKelembaban`+sep+unsigned),
			rule("humidity-label", StrategyLabel, `(?i)\bHumidity`+sep+unsigned),
			rule("rh-label", StrategyLabel, `(?i)\bRH`+sep+unsigned),
			rule("percent", StrategyLabel, unsigned+`\s*%`),
		},
		FieldWindSpeed: {
			rule("wind-speed-class", StrategyMarkup, `(?i)class="[^"]*wind[-_]?speed[^"]*"[^>]*>\s*`+unsigned),
			rule("kecepatan-angin-kt", StrategyLabel, `(?i)\bKecepatan\s*Angin`+sep+rangeLower+unsigned+`\s*(?:kt|knots?)\b`),
			scaled(rule("kecepatan-angin-kmh", StrategyLabel, `(?i)\bKecepatan\s*Angin`+sep+rangeLower+unsigned+`\s*km/h`), knotsPerKmh),
			scaled(rule("kecepatan-angin-ms", StrategyLabel, `(?i)\bKecepatan\s*Angin`+sep+rangeLower+unsigned+`\s*m/s`), knotsPerMs),
			rule("knots", StrategyLabel, `(?i)`+unsigned+`\s*(?:kt|knots?)\b`),
			scaled(rule("kmh", StrategyLabel, `(?i)`+unsigned+`\s*km/h`), knotsPerKmh),
			rule("wind-speed-key", StrategyScript, `(?i)["']?wind_?speed["']?\s*:\s*["']?`+unsigned),
		},
		FieldWindGust: {
			rule("gust-class", StrategyMarkup, `(?i)class="[^"]*gust[^"]*"[^>]*>\s*`+unsigned),
			rule("gust-label", StrategyLabel, `(?i)\bGust`+sep+unsigned),
			rule("angin-puncak-label", StrategyLabel, `(?i)\bAngin\s*Puncak`+sep+unsigned),
			rule("puncak-label", StrategyLabel, `(?i)\bPuncak`+sep+unsigned),
			rule("gust-key", StrategyScript, `(?i)["']?(?:wind_)?gust["']?\s*:\s*["']?`+unsigned),
		},
		FieldWindDirection: withCells(
			rule("wind-class", StrategyMarkup, `(?i)class="[^"]*wind[^"]*"`+markupCapture),
			rule("direction-class", StrategyMarkup, `(?i)class="(?:[^"]*\s)?(?:direction|arah)(?:\s[^"]*)?"`+markupCapture),
			rule("angin-dari-header", StrategyMarkup, `(?is)<th[^>]*>.*?Angin.*?Dari.*?</th>.*?<td[^>]*>([^<>\n]+)</td>`),
			rule("wind-direction-header", StrategyMarkup, `(?is)<th[^>]*>.*?Wind.*?Direction.*?</th>.*?<td[^>]*>([^<>\n]+)</td>`),
			rule("angin-dari-label", StrategyLabel, `(?i)\bAngin\s*Dari`+sep+labelValue),
			rule("wind-direction-label", StrategyLabel, `(?i)\bWind\s*Direction`+sep+labelValue),
			rule("arah-angin-label", StrategyLabel, `(?i)\bArah\s*Angin`+sep+labelValue),
			rule("angin-dari-phrase", StrategyLabel, `(?i)\bAngin\b[^<>\n]{0,40}?\bdari\s+`+compassValue),
			rule("direction-speed-pair", StrategyScript, `(?i)["']([^"'<>\n]*`+compassWords+`[^"'<>\n]*)["']\s*,\s*\d+\s*kt`),
			rule("wind-from-key", StrategyScript, `(?i)wind_from["']?\s*:\s*["']([^"'<>\n]+)["']`),
			rule("quoted-compass", StrategyScript, `(?i)["']([^"'<>\n]*`+compassWords+`[^"'<>\n]*)["']`),
		),
		FieldWaveHeight: {
			rule("wave-class", StrategyMarkup, `(?i)class="[^"]*(?:wave|gelombang)[^"]*"[^>]*>\s*`+unsigned+`\s*m`),
			rule("tinggi-gelombang-label", StrategyLabel, `(?i)\bTinggi\s*Gelombang`+sep+rangeLower+unsigned),
			rule("wave-height-label", StrategyLabel, `(?i)\bWave\s*Height`+sep+rangeLower+unsigned),
			rule("metres", StrategyLabel, `(?i)`+unsigned+`\s*(?:meters?|m)(?:$|[^\w/])`),
			rule("wave-height-key", StrategyScript, `(?i)["']?wave_?height["']?\s*:\s*["']?`+unsigned),
		},
		FieldWaveClassification: withCells(
			rule("wave-class", StrategyMarkup, `(?i)class="[^"]*(?:wave|gelombang)[^"]*"`+markupCapture),
			rule("gelombang-label", StrategyLabel, `(?i)\bGelombang`+sep+`([A-Za-z][A-Za-z ]*)`),
			rule("wave-category-key", StrategyScript, `(?i)["']?(?:wave_?(?:cat|category|class)|kategori_gelombang)["']?\s*:\s*["']([^"'<>\n]+)["']`),
		),
		FieldCurrentSpeed: {
			rule("current-class-cms", StrategyMarkup, `(?i)class="[^"]*(?:current|arus)[^"]*"[^>]*>\s*`+unsigned+`\s*cm/s`),
			rule("kecepatan-arus-cms", StrategyLabel, `(?i)\bKecepatan\s*Arus`+sep+unsigned+`\s*cm/s`),
			scaled(rule("kecepatan-arus-ms", StrategyLabel, `(?i)\bKecepatan\s*Arus`+sep+unsigned+`\s*m/s`), cmsPerMs),
			rule("current-speed-cms", StrategyLabel, `(?i)\bCurrent\s*Speed`+sep+unsigned+`\s*cm/s`),
			scaled(rule("current-speed-ms", StrategyLabel, `(?i)\bCurrent\s*Speed`+sep+unsigned+`\s*m/s`), cmsPerMs),
			rule("cms", StrategyLabel, `(?i)`+unsigned+`\s*cm/s`),
			rule("current-speed-key", StrategyScript, `(?i)["']?current_?speed["']?\s*:\s*["']?`+unsigned),
		},
		FieldCurrentDirection: withCells(
			rule("current-class", StrategyMarkup, `(?i)class="[^"]*(?:current|arus)[^"]*"`+markupCapture),
			rule("arus-dari-header", StrategyMarkup, `(?is)<th[^>]*>.*?Arus.*?Dari.*?</th>.*?<td[^>]*>([^<>\n]+)</td>`),
			rule("current-direction-header", StrategyMarkup, `(?is)<th[^>]*>.*?Current.*?Direction.*?</th>.*?<td[^>]*>([^<>\n]+)</td>`),
			rule("arus-dari-label", StrategyLabel, `(?i)\bArus\s*Dari`+sep+labelValue),
			rule("arah-arus-label", StrategyLabel, `(?i)\bArah\s*Arus`+sep+labelValue),
			rule("current-direction-label", StrategyLabel, `(?i)\bCurrent\s*Direction`+sep+labelValue),
			rule("arus-label", StrategyLabel, `(?i)\bArus`+sep+labelValue),
			rule("current-to-key", StrategyScript, `(?i)current_(?:to|from)["']?\s*:\s*["']([^"'<>\n]+)["']`),
			rule("quoted-compass", StrategyScript, `(?i)["']([^"'<>\n]*`+compassWords+`[^"'<>\n]*)["']`),
		),
		FieldWeatherCondition: withCells(
			rule("weather-text-class", StrategyMarkup, `(?i)class="weather-text"`+markupCapture),
			rule("weather-class", StrategyMarkup, `(?i)class="[^"]*(?:weather|condition|cuaca)[^"]*"`+markupCapture),
			rule("cuaca-label", StrategyLabel, `(?i)\bCuaca`+sep+`([^<>\n]+)`),
			rule("weather-label", StrategyLabel, `(?i)\bWeather`+sep+`([^<>\n]+)`),
			rule("weather-key", StrategyScript, `(?i)["']?(?:weather(?:_desc)?|cuaca|kondisi)["']?\s*:\s*["']([^"'<>\n]+)["']`),
		),
		FieldWeatherIcon: {
			rule("icon-class-before-src", StrategyMarkup, `(?i)<img[^>]*class="[^"]*(?:icon|weather)[^"]*"[^>]*src="([^"]+)"`),
			rule("icon-class-after-src", StrategyMarkup, `(?i)<img[^>]*src="([^"]+)"[^>]*class="[^"]*(?:icon|weather)[^"]*"`),
			rule("icon-key", StrategyScript, `(?i)["']?(?:weather_)?icon["']?\s*:\s*["']([^"'\s]+)["']`),
			rule("image-src", StrategyCells, `(?i)src="([^"]*\.(?:svg|png|jpe?g))"`),
		},
		FieldObservationTime: {
			rule("date-time", StrategyLabel, `(\d{1,2}\s+[A-Za-z]+\s+\d{2,4},?\s+\d{1,2}[.:]\d{2}(?:\s*(?:WIB|WITA|WIT|UTC))?)`),
			rule("waktu-label", StrategyLabel, `(?i)\bWaktu`+sep+`([^<>\n]+)`),
			rule("iso-timestamp", StrategyScript, `(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(?::\d{2})?(?:Z|[+-]\d{2}:?\d{2})?)`),
			rule("bare-time", StrategyCells, `\b(\d{2}\.\d{2}|\d{1,2}:\d{2})\b`),
		},
		FieldIsCurrent: {
			rule("saat-ini", StrategyLabel, `(?i)\b(saat\s+ini)\b`),
			rule("current-weather", StrategyLabel, `(?i)\b(current\s+weather)\b`),
			rule("now", StrategyLabel, `(?i)\b(now)\b`),
		},
	}
}
