package providers

import (
	"context"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-companion/internal/geocode"
)

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocoder implements geocode.ReverseGeocoder on the Google Geocoding
// API. The underlying client has no language parameter, so every language
// gets the API's default names.
type GoogleGeocoder struct {
	apiKey  string
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey, reverse: geocoder.GeocodingReverse}
}

func (g *GoogleGeocoder) Name() string {
	return "google"
}

// Localized reports that the Google client always answers in one language.
func (g *GoogleGeocoder) Localized() bool {
	return false
}

func (g *GoogleGeocoder) Reverse(ctx context.Context, lat, lon float64, lang string) (geocode.Place, error) {
	type result struct {
		addrs []geocoder.Address
		err   error
	}

	// The client takes no context; abandon the call when ctx ends.
	done := make(chan result, 1)
	go func() {
		googleKeyMu.Lock()
		geocoder.ApiKey = g.apiKey
		addrs, err := g.reverse(geocoder.Location{Latitude: lat, Longitude: lon})
		googleKeyMu.Unlock()
		done <- result{addrs: addrs, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return geocode.Place{}, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return geocode.Place{}, res.err
	}

	addr, ok := pickLocality(res.addrs)
	if !ok {
		return geocode.Place{}, geocode.ErrNoResults
	}
	return geocode.Place{
		Locality:  addr.City,
		Region:    addr.State,
		Country:   addr.Country,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// pickLocality prefers results typed as a settlement, then any result with a city.
func pickLocality(addrs []geocoder.Address) (geocoder.Address, bool) {
	for _, a := range addrs {
		if a.City != "" && settlementType(a.Types) {
			return a, true
		}
	}
	for _, a := range addrs {
		if a.City != "" {
			return a, true
		}
	}
	return geocoder.Address{}, false
}

// settlementType reports whether a comma-joined Google result type list names a town or city.
func settlementType(types string) bool {
	for _, t := range []string{"locality", "postal_town"} {
		if strings.Contains(types, t) {
			return true
		}
	}
	return false
}
