// Package domain models BMKG maritime weather observations and the batch
// records produced for each visited area.
//
// # Data Source
//
// Observations originate from the Indonesian Meteorology, Climatology and
// Geophysics Agency (BMKG) maritime portal at https://maritim.bmkg.go.id.
// Two page families are visited:
//
//	Maritime areas: HTML pages at /cuaca/perairan/<slug>, parsed by the
//	extraction engine into an [Observation].
//	Ports: JSON documents at /api/pelabuhan?slug=<slug>, passed through raw.
//
// City and grid datasets come from the Open-Meteo forecast API
// (https://api.open-meteo.com/v1/forecast) and are also passed through raw.
//
// # Slug Conventions
//
// Port slugs replace every non-alphanumeric character with a space, collapse
// whitespace runs into single hyphens, and lower-case the result:
//
//	"Pelabuhan Tanjung Priok (Jakarta)"  →  "pelabuhan-tanjung-priok-jakarta"
//
// Maritime slugs drop the word "Perairan", apply the same rules, then add a
// fixed "perairan-" prefix:
//
//	"Perairan Aceh Utara - Aceh Timur"  →  "perairan-aceh-utara-aceh-timur"
//
// # Units
//
// Field units are fixed regardless of the unit the page used:
//
//	temperature     degrees Celsius
//	humidity        percent (0–100)
//	wind speed/gust knots (km/h and m/s values are converted)
//	wave height     metres
//	current speed   centimetres per second (m/s values are converted)
//
// Directions are Indonesian compass labels ("Barat Daya", "Timur Laut", ...).
// Observation time is kept as the text the page shows, e.g. "12 Agu 24, 07.00".
//
// # Result Status
//
// Each area in a batch ends in exactly one [Status]: success, no_data,
// failed (non-200 or undecodable JSON) or error (transport failure).
package domain
