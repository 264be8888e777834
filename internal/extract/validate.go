package extract

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Range is a closed numeric interval.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies within the closed range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Policy is the validator configuration. Numeric limits are heuristic guards
// against scraping artifacts, so they are data rather than constants.
type Policy struct {
	Vocabulary         Vocabulary      `yaml:"vocabulary"`
	Limits             map[Field]Range `yaml:"limits"`
	MaxDirectionLength int             `yaml:"max_direction_length"`
	MaxConditionLength int             `yaml:"max_condition_length"`
}

// DefaultPolicy returns the limits observed to separate real BMKG values from
// mis-captured numbers such as 333333.
func DefaultPolicy() Policy {
	return Policy{
		Vocabulary: DefaultVocabulary(),
		Limits: map[Field]Range{
			FieldTemperature:  {Min: -40, Max: 60},
			FieldHumidity:     {Min: 0, Max: 100},
			FieldWindSpeed:    {Min: 0, Max: 100},
			FieldWindGust:     {Min: 0, Max: 150},
			FieldWaveHeight:   {Min: 0, Max: 20},
			FieldCurrentSpeed: {Min: 0, Max: 200},
		},
		MaxDirectionLength: 30,
		MaxConditionLength: 50,
	}
}

// LoadPolicy reads a YAML policy file and merges it over DefaultPolicy.
// Limits are merged per field; a vocabulary list that is present replaces the
// default list. An empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the policy for internal consistency.
func (p Policy) Validate() error {
	for f, r := range p.Limits {
		if !f.Numeric() {
			return fmt.Errorf("limits: %q is not a numeric field", f)
		}
		if r.Min > r.Max {
			return fmt.Errorf("limits: %s min %g exceeds max %g", f, r.Min, r.Max)
		}
	}
	if p.MaxDirectionLength <= 0 {
		return errors.New("max_direction_length must be positive")
	}
	if p.MaxConditionLength <= 0 {
		return errors.New("max_condition_length must be positive")
	}
	if len(p.Vocabulary.Directions.Terms) == 0 {
		return errors.New("vocabulary: no direction terms")
	}
	return nil
}

func (p Policy) clone() Policy {
	limits := make(map[Field]Range, len(p.Limits))
	for f, r := range p.Limits {
		limits[f] = r
	}
	return Policy{
		Vocabulary:         p.Vocabulary.clone(),
		Limits:             limits,
		MaxDirectionLength: p.MaxDirectionLength,
		MaxConditionLength: p.MaxConditionLength,
	}
}

// Validator decides whether a raw candidate is an acceptable value for a
// field. It holds a private copy of its policy and is safe for concurrent use.
type Validator struct {
	policy Policy
}

// NewValidator returns a validator for p.
func NewValidator(p Policy) *Validator {
	return &Validator{policy: p.clone()}
}

// Policy returns a copy of the validator's policy.
func (v *Validator) Policy() Policy {
	return v.policy.clone()
}

// Validate reports whether candidate is acceptable for field.
func (v *Validator) Validate(field Field, candidate string) bool {
	_, ok := v.Accept(field, candidate)
	return ok
}

// Canonical returns the normalized form of an accepted candidate, or "" if
// the candidate is rejected.
func (v *Validator) Canonical(field Field, candidate string) string {
	value, ok := v.Accept(field, candidate)
	if !ok {
		return ""
	}
	return value
}

// Accept validates candidate and returns its canonical form.
func (v *Validator) Accept(field Field, candidate string) (string, bool) {
	c := strings.TrimSpace(candidate)
	if c == "" {
		return "", false
	}
	k, ok := fieldKinds[field]
	if !ok {
		return "", false
	}
	switch k {
	case kindNumeric:
		return v.acceptNumber(field, c)
	case kindDirection:
		return v.acceptTerm(v.policy.Vocabulary.Directions, c, v.policy.MaxDirectionLength)
	case kindCondition:
		return v.acceptTerm(v.policy.Vocabulary.Conditions, c, v.policy.MaxConditionLength)
	case kindWaveClass:
		return v.acceptTerm(v.policy.Vocabulary.WaveClasses, c, v.policy.MaxConditionLength)
	case kindTime:
		return c, validTime(c)
	case kindIcon:
		return c, validIcon(c)
	case kindFlag:
		return "true", true
	}
	return "", false
}

func (v *Validator) acceptNumber(field Field, c string) (string, bool) {
	n, err := strconv.ParseFloat(c, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return "", false
	}
	if r, ok := v.policy.Limits[field]; ok && !r.Contains(n) {
		return "", false
	}
	return strconv.FormatFloat(n, 'f', -1, 64), true
}

func (v *Validator) acceptTerm(lex Lexicon, c string, maxLen int) (string, bool) {
	if utf8.RuneCountInString(c) >= maxLen || hasMarkup(c) {
		return "", false
	}
	lower := normalizeTerm(c)
	if lex.excluded(lower) {
		return "", false
	}
	t, ok := lex.match(lower)
	if !ok {
		return "", false
	}
	return t.Label, true
}

// hasMarkup reports residual HTML attribute or link fragments.
func hasMarkup(c string) bool {
	lower := strings.ToLower(c)
	if strings.HasPrefix(lower, "/") || strings.HasPrefix(lower, "data-") {
		return true
	}
	for _, frag := range []string{"class=", "href=", "src=", "style=", "<", ">"} {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

var (
	dateTimeRe = regexp.MustCompile(`^\d{1,2}\s+([A-Za-z]+)\s+\d{2,4},?\s+(\d{1,2})[.:](\d{2})(?:\s*(?:WIB|WITA|WIT|UTC))?$`)
	isoTimeRe  = regexp.MustCompile(`^\d{4}-(\d{2})-(\d{2})T(\d{2}):(\d{2})(?::\d{2})?(?:Z|[+-]\d{2}:?\d{2})?$`)
	bareTimeRe = regexp.MustCompile(`^(\d{1,2})[.:](\d{2})(?:\s*(?:WIB|WITA|WIT|UTC))?$`)

	monthPrefixes = map[string]bool{
		"jan": true, "feb": true, "mar": true, "apr": true, "mei": true, "may": true,
		"jun": true, "jul": true, "agu": true, "agt": true, "aug": true, "sep": true,
		"okt": true, "oct": true, "nov": true, "des": true, "dec": true,
	}
)

// validTime accepts a full date-time, an ISO timestamp, or a bare clock time
// whose hour and minute are in range. Bare numbers like 99.99 are rejected.
func validTime(c string) bool {
	if m := dateTimeRe.FindStringSubmatch(c); m != nil {
		month := strings.ToLower(m[1])
		if len(month) < 3 || !monthPrefixes[month[:3]] {
			return false
		}
		return clockInRange(m[2], m[3])
	}
	if m := isoTimeRe.FindStringSubmatch(c); m != nil {
		mon, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		return mon >= 1 && mon <= 12 && day >= 1 && day <= 31 && clockInRange(m[3], m[4])
	}
	if m := bareTimeRe.FindStringSubmatch(c); m != nil {
		return clockInRange(m[1], m[2])
	}
	return false
}

func clockInRange(hh, mm string) bool {
	h, errH := strconv.Atoi(hh)
	m, errM := strconv.Atoi(mm)
	return errH == nil && errM == nil && h >= 0 && h <= 23 && m >= 0 && m <= 59
}

var imageExts = map[string]bool{
	".svg": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

// validIcon accepts absolute http(s) or relative image references.
func validIcon(c string) bool {
	if strings.ContainsAny(c, " \t\r\n") {
		return false
	}
	u, err := url.Parse(c)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "", "http", "https":
	default:
		return false
	}
	if u.Path == "" {
		return false
	}
	return imageExts[strings.ToLower(path.Ext(u.Path))] || strings.Contains(strings.ToLower(u.Path), "icon")
}
