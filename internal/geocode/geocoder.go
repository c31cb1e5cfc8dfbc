package geocode

import "context"

const (
	LangEnglish = "en"
	LangFinnish = "fi"
)

// Place is a reverse geocoding answer in one language.
type Place struct {
	Locality    string
	Region      string
	Country     string
	CountryCode string
	Latitude    float64
	Longitude   float64
}

// SearchResult is one forward geocoding hit in one language.
type SearchResult struct {
	ID          int64
	Name        string
	Region      string
	Country     string
	CountryCode string
	Timezone    string
	Latitude    float64
	Longitude   float64
}

// ReverseGeocoder resolves coordinates to a place name in the given language.
// Implementations return ErrNoResults when nothing is known at the point.
type ReverseGeocoder interface {
	Name() string
	Reverse(ctx context.Context, lat, lon float64, lang string) (Place, error)
}

// LanguageAware is implemented by reverse geocoders that can say whether they
// honour the lang argument. Geocoders without it are taken to honour it.
type LanguageAware interface {
	Localized() bool
}

func localized(g ReverseGeocoder) bool {
	la, ok := g.(LanguageAware)
	return !ok || la.Localized()
}

// Searcher resolves a free-form place name to candidate locations.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query, lang string) ([]SearchResult, error)
}
