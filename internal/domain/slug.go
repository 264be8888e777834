package domain

import (
	"regexp"
	"strings"
)

var (
	// slugDropRe matches everything that is not an ASCII letter, digit or whitespace.
	slugDropRe = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

	// slugSpaceRe matches whitespace runs, which become single hyphens.
	slugSpaceRe = regexp.MustCompile(`\s+`)
)

const (
	maritimeBaseURL = "https://maritim.bmkg.go.id/cuaca/perairan/"
	portBaseURL     = "https://maritim.bmkg.go.id/api/pelabuhan?slug="
)

// PortSlug converts a port name to the slug the BMKG port API expects,
// e.g. "Pelabuhan Tanjung Priok (Jakarta)" -> "pelabuhan-tanjung-priok-jakarta".
func PortSlug(name string) string {
	s := slugDropRe.ReplaceAllString(name, " ")
	s = slugSpaceRe.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.ToLower(s)
}

// MaritimeSlug converts a maritime area name to its page slug. The "Perairan"
// word is dropped and re-added as a fixed prefix, e.g.
// "Perairan Aceh Utara - Aceh Timur" -> "perairan-aceh-utara-aceh-timur".
func MaritimeSlug(name string) string {
	clean := strings.TrimSpace(strings.ReplaceAll(name, "Perairan", ""))
	return "perairan-" + PortSlug(clean)
}

// MaritimeURL returns the area page URL for a maritime slug.
func MaritimeURL(slug string) string {
	return maritimeBaseURL + slug
}

// PortURL returns the JSON API URL for a port slug.
func PortURL(slug string) string {
	return portBaseURL + slug
}
