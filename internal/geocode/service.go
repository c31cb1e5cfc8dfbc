package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-companion/internal/weather"
)

var validate = validator.New()

type searchQuery struct {
	Query string `validate:"required,min=2,max=100"`
}

type coordinates struct {
	Lat float64 `validate:"latitude"`
	Lon float64 `validate:"longitude"`
}

// Service resolves place names and coordinates in English and Finnish.
type Service struct {
	searcher Searcher
	primary  ReverseGeocoder
	fallback ReverseGeocoder
}

// NewService creates a Service. primary may be nil, in which case the
// fallback answers every reverse lookup.
func NewService(searcher Searcher, primary, fallback ReverseGeocoder) *Service {
	return &Service{
		searcher: searcher,
		primary:  primary,
		fallback: fallback,
	}
}

// Search looks a place name up in both languages and merges the hits.
func (s *Service) Search(ctx context.Context, query string) ([]weather.LocationData, error) {
	q, err := NormalizeQuery(query)
	if err != nil {
		return nil, err
	}
	if s.searcher == nil {
		return nil, &GeocodingError{Op: "search", Err: errors.New("no searcher configured")}
	}

	var (
		wg      sync.WaitGroup
		results [2][]SearchResult
		errs    [2]error
	)
	for i, lang := range []string{LangEnglish, LangFinnish} {
		wg.Add(1)
		go func(i int, lang string) {
			defer wg.Done()
			results[i], errs[i] = s.searcher.Search(ctx, q, lang)
		}(i, lang)
	}
	wg.Wait()

	merged := MergeSearchResults(results[0], results[1])
	if len(merged) > 0 {
		return merged, nil
	}
	if err := joinFailures(errs[:]...); err != nil {
		return nil, &GeocodingError{Op: "search", Geocoder: s.searcher.Name(), Err: err}
	}
	return nil, ErrNoResults
}

// Reverse resolves coordinates to a named location. The primary geocoder is
// asked for both languages; the fallback is only called when that yields no
// locality. A primary that ignores the language only supplies the English
// answer and the fallback is asked for the Finnish one.
func (s *Service) Reverse(ctx context.Context, lat, lon float64) (weather.LocationData, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return weather.LocationData{}, err
	}

	var primaryErr error
	if s.primary != nil {
		var (
			en, fi Place
			err    error
		)
		if localized(s.primary) {
			en, fi, err = reverseBoth(ctx, s.primary, lat, lon)
		} else {
			en, err = s.primary.Reverse(ctx, lat, lon, LangEnglish)
			err = joinFailures(err)
			if strings.TrimSpace(en.Locality) != "" {
				fi = s.finnishFromFallback(ctx, lat, lon)
			}
		}
		if loc, ok := Reconcile(lat, lon, en, fi); ok {
			return loc, nil
		}
		primaryErr = err
	}

	if s.hasDistinctFallback() {
		if s.primary != nil {
			slog.Debug("primary geocoder had no locality, using fallback",
				"primary", s.primary.Name(), "fallback", s.fallback.Name(), "err", primaryErr)
		}
		en, fi, err := reverseBoth(ctx, s.fallback, lat, lon)
		if loc, ok := Reconcile(lat, lon, en, fi); ok {
			return loc, nil
		}
		if err != nil {
			return weather.LocationData{}, &GeocodingError{Op: "reverse", Geocoder: s.fallback.Name(), Err: err}
		}
	}

	if primaryErr != nil {
		return weather.LocationData{}, &GeocodingError{Op: "reverse", Geocoder: s.primary.Name(), Err: primaryErr}
	}
	return weather.LocationData{}, ErrNoResults
}

func (s *Service) hasDistinctFallback() bool {
	return s.fallback != nil && (s.primary == nil || s.fallback.Name() != s.primary.Name())
}

// finnishFromFallback returns the fallback's Finnish answer, or an empty
// Place when there is none.
func (s *Service) finnishFromFallback(ctx context.Context, lat, lon float64) Place {
	if !s.hasDistinctFallback() {
		return Place{}
	}
	p, err := s.fallback.Reverse(ctx, lat, lon, LangFinnish)
	if err != nil {
		slog.Debug("no Finnish name from fallback geocoder", "fallback", s.fallback.Name(), "err", err)
		return Place{}
	}
	return p
}

// CurrentLocation resolves the device position when the user allows it.
func (s *Service) CurrentLocation(ctx context.Context, lat, lon float64, allowed bool) (weather.LocationData, error) {
	if !allowed {
		return weather.LocationData{}, ErrLocationPermissionDenied
	}
	return s.Reverse(ctx, lat, lon)
}

// ValidateCoordinates rejects latitudes and longitudes outside the valid range.
func ValidateCoordinates(lat, lon float64) error {
	if err := validate.Struct(coordinates{Lat: lat, Lon: lon}); err != nil {
		return fmt.Errorf("%w: coordinates %v,%v out of range", ErrInvalidAddress, lat, lon)
	}
	return nil
}

// NormalizeQuery trims a search query and rejects ones that cannot name a place.
func NormalizeQuery(query string) (string, error) {
	q := strings.Join(strings.Fields(query), " ")
	if err := validate.Struct(searchQuery{Query: q}); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, query)
	}
	if strings.IndexFunc(q, unicode.IsLetter) < 0 {
		return "", fmt.Errorf("%w: %q has no letters", ErrInvalidAddress, query)
	}
	return q, nil
}

// reverseBoth asks g for the English and Finnish names concurrently. The
// returned error is nil when every failure was ErrNoResults.
func reverseBoth(ctx context.Context, g ReverseGeocoder, lat, lon float64) (Place, Place, error) {
	var (
		wg     sync.WaitGroup
		places [2]Place
		errs   [2]error
	)
	for i, lang := range []string{LangEnglish, LangFinnish} {
		wg.Add(1)
		go func(i int, lang string) {
			defer wg.Done()
			places[i], errs[i] = g.Reverse(ctx, lat, lon, lang)
		}(i, lang)
	}
	wg.Wait()

	return places[0], places[1], joinFailures(errs[:]...)
}

func joinFailures(errs ...error) error {
	var failures []error
	for _, err := range errs {
		if err != nil && !errors.Is(err, ErrNoResults) {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}
