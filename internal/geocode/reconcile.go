package geocode

import (
	"strings"

	"github.com/i474232898/weather-companion/internal/weather"
)

// Reconcile merges the English and Finnish answers for one point. Each name
// fills in for the other when missing; region and country prefer English.
// ok is false when neither answer has a locality.
func Reconcile(lat, lon float64, en, fi Place) (weather.LocationData, bool) {
	nameEN := strings.TrimSpace(en.Locality)
	nameFI := strings.TrimSpace(fi.Locality)
	if nameEN == "" && nameFI == "" {
		return weather.LocationData{}, false
	}
	if nameEN == "" {
		nameEN = nameFI
	}
	if nameFI == "" {
		nameFI = nameEN
	}

	return weather.LocationData{
		NameEN:      nameEN,
		NameFI:      nameFI,
		Region:      firstNonEmpty(en.Region, fi.Region),
		Country:     firstNonEmpty(en.Country, fi.Country),
		CountryCode: strings.ToUpper(firstNonEmpty(en.CountryCode, fi.CountryCode)),
		Latitude:    lat,
		Longitude:   lon,
	}, true
}

// MergeSearchResults joins English and Finnish search hits by provider ID,
// keeping the English ranking and appending Finnish-only hits after it.
func MergeSearchResults(en, fi []SearchResult) []weather.LocationData {
	fiByID := make(map[int64]SearchResult, len(fi))
	for _, r := range fi {
		fiByID[r.ID] = r
	}

	out := make([]weather.LocationData, 0, len(en)+len(fi))
	seen := make(map[int64]bool, len(en))
	for _, r := range en {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, mergeResult(r, fiByID[r.ID]))
	}
	for _, r := range fi {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, mergeResult(SearchResult{}, r))
	}
	return out
}

func mergeResult(en, fi SearchResult) weather.LocationData {
	base := en
	if base.ID == 0 && base.Name == "" {
		base = fi
	}
	return weather.LocationData{
		NameEN:      firstNonEmpty(en.Name, fi.Name),
		NameFI:      firstNonEmpty(fi.Name, en.Name),
		Region:      firstNonEmpty(en.Region, fi.Region),
		Country:     firstNonEmpty(en.Country, fi.Country),
		CountryCode: strings.ToUpper(base.CountryCode),
		Latitude:    base.Latitude,
		Longitude:   base.Longitude,
		Timezone:    base.Timezone,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
