package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Term maps a lower-case keyword to the label emitted when it matches.
type Term struct {
	Keyword string `yaml:"keyword"`
	Label   string `yaml:"label"`
}

// Lexicon is the keyword profile of one text field. A candidate is accepted
// when it contains a term and none of the excluded words.
type Lexicon struct {
	Terms    []Term   `yaml:"terms"`
	Excludes []string `yaml:"excludes"`
}

// Vocabulary holds the localized keyword sets the validator checks text
// candidates against.
type Vocabulary struct {
	Directions  Lexicon `yaml:"directions"`
	Conditions  Lexicon `yaml:"conditions"`
	WaveClasses Lexicon `yaml:"wave_classes"`
}

// DefaultVocabulary returns the Indonesian and English keyword sets used on
// BMKG maritime pages. English keywords map onto the Indonesian labels.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Directions: Lexicon{
			Terms: []Term{
				{"utara", "Utara"},
				{"timur laut", "Timur Laut"},
				{"timur", "Timur"},
				{"tenggara", "Tenggara"},
				{"selatan", "Selatan"},
				{"barat daya", "Barat Daya"},
				{"barat", "Barat"},
				{"barat laut", "Barat Laut"},
				{"north", "Utara"},
				{"northeast", "Timur Laut"},
				{"east", "Timur"},
				{"southeast", "Tenggara"},
				{"south", "Selatan"},
				{"southwest", "Barat Daya"},
				{"west", "Barat"},
				{"northwest", "Barat Laut"},
				{"utara timur laut", "Utara Timur Laut"},
				{"timur timur laut", "Timur Timur Laut"},
				{"timur tenggara", "Timur Tenggara"},
				{"selatan tenggara", "Selatan Tenggara"},
				{"selatan barat daya", "Selatan Barat Daya"},
				{"barat barat daya", "Barat Barat Daya"},
				{"barat barat laut", "Barat Barat Laut"},
				{"utara barat laut", "Utara Barat Laut"},
				{"north northeast", "Utara Timur Laut"},
				{"nne", "Utara Timur Laut"},
				{"east northeast", "Timur Timur Laut"},
				{"ene", "Timur Timur Laut"},
				{"east southeast", "Timur Tenggara"},
				{"ese", "Timur Tenggara"},
				{"south southeast", "Selatan Tenggara"},
				{"sse", "Selatan Tenggara"},
				{"south southwest", "Selatan Barat Daya"},
				{"ssw", "Selatan Barat Daya"},
				{"west southwest", "Barat Barat Daya"},
				{"wsw", "Barat Barat Daya"},
				{"west northwest", "Barat Barat Laut"},
				{"wnw", "Barat Barat Laut"},
				{"north northwest", "Utara Barat Laut"},
				{"nnw", "Utara Barat Laut"},
			},
			Excludes: []string{
				"perairan", "aceh", "medan", "banda", "provinsi", "kota", "kabupaten",
				"selat", "teluk", "nusa", "pulau", "kepulauan", "samudera", "samudra",
				"pelabuhan", "bagian", "wilayah", "strait",
			},
		},
		Conditions: Lexicon{
			Terms: []Term{
				{"hujan", "Hujan"},
				{"hujan ringan", "Hujan Ringan"},
				{"hujan sedang", "Hujan Sedang"},
				{"hujan lebat", "Hujan Lebat"},
				{"hujan petir", "Hujan Petir"},
				{"berawan", "Berawan"},
				{"berawan tebal", "Berawan Tebal"},
				{"cerah", "Cerah"},
				{"cerah berawan", "Cerah Berawan"},
				{"mendung", "Mendung"},
				{"rain", "Hujan"},
				{"cloudy", "Berawan"},
				{"clear", "Cerah"},
				{"overcast", "Mendung"},
			},
		},
		WaveClasses: Lexicon{
			Terms: []Term{
				{"rendah", "Rendah"},
				{"sedang", "Sedang"},
				{"tinggi", "Tinggi"},
				{"sangat tinggi", "Sangat Tinggi"},
				{"low", "Rendah"},
				{"moderate", "Sedang"},
				{"high", "Tinggi"},
				{"very high", "Sangat Tinggi"},
			},
			Excludes: []string{"gelombang", "wave", "hujan", "rain", "angin", "wind"},
		},
	}
}

// match returns the term whose keyword occurs as whole words in lower.
// The longest keyword wins so that "barat daya" beats "barat"; ties go to
// the earliest occurrence.
func (l Lexicon) match(lower string) (Term, bool) {
	var (
		best    Term
		bestIdx = -1
	)
	for _, t := range l.Terms {
		idx := indexWord(lower, t.Keyword)
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || len(t.Keyword) > len(best.Keyword) ||
			(len(t.Keyword) == len(best.Keyword) && idx < bestIdx) {
			best, bestIdx = t, idx
		}
	}
	return best, bestIdx >= 0
}

// excluded reports whether lower contains any excluded word.
func (l Lexicon) excluded(lower string) bool {
	for _, w := range l.Excludes {
		if indexWord(lower, w) >= 0 {
			return true
		}
	}
	return false
}

func (l Lexicon) clone() Lexicon {
	out := Lexicon{
		Terms:    make([]Term, len(l.Terms)),
		Excludes: make([]string, len(l.Excludes)),
	}
	for i, t := range l.Terms {
		out.Terms[i] = Term{Keyword: strings.ToLower(t.Keyword), Label: t.Label}
	}
	for i, w := range l.Excludes {
		out.Excludes[i] = strings.ToLower(w)
	}
	return out
}

func (v Vocabulary) clone() Vocabulary {
	return Vocabulary{
		Directions:  v.Directions.clone(),
		Conditions:  v.Conditions.clone(),
		WaveClasses: v.WaveClasses.clone(),
	}
}

// normalizeTerm lower-cases c and splits compound spellings such as
// "Barat-Daya", "barat_daya" and "BaratDaya" into space-separated words.
func normalizeTerm(c string) string {
	var b strings.Builder
	b.Grow(len(c) + 4)
	var prev rune
	for _, r := range c {
		switch {
		case r == '-' || r == '_':
			r = ' '
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.Join(strings.Fields(strings.ToLower(b.String())), " ")
}

// indexWord returns the byte offset of the first occurrence of word in s that
// is not glued to a neighbouring letter, or -1.
func indexWord(s, word string) int {
	if word == "" {
		return -1
	}
	for off := 0; off < len(s); {
		i := strings.Index(s[off:], word)
		if i < 0 {
			return -1
		}
		start := off + i
		end := start + len(word)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !unicode.IsLetter(before)) && (end == len(s) || !unicode.IsLetter(after)) {
			return start
		}
		off = start + 1
	}
	return -1
}
