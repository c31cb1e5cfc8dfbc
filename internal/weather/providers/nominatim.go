package providers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/i474232898/weather-companion/internal/geocode"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimGeocoder implements geocode.ReverseGeocoder on OpenStreetMap Nominatim.
// Nominatim's usage policy requires an identifying User-Agent.
type NominatimGeocoder struct {
	fetch *fetcher
}

func NewNominatimGeocoder(cfg ClientConfig) *NominatimGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNominatimURL
	}
	return &NominatimGeocoder{fetch: newFetcher("nominatim", cfg)}
}

func (g *NominatimGeocoder) Name() string {
	return g.fetch.name
}

type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code"`
}

// locality picks the most specific settlement name present.
func (a nominatimAddress) locality() string {
	return firstSet(a.City, a.Town, a.Village, a.Municipality, a.County)
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon float64, lang string) (geocode.Place, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	values.Set("format", "jsonv2")
	values.Set("addressdetails", "1")
	values.Set("zoom", "10")
	values.Set("accept-language", lang)

	// Points without data (open sea) come back as 200 with an "error" field.
	var payload struct {
		Error   string           `json:"error"`
		Lat     string           `json:"lat"`
		Lon     string           `json:"lon"`
		Address nominatimAddress `json:"address"`
	}
	if err := g.fetch.getJSON(ctx, "/reverse", values, &payload); err != nil {
		return geocode.Place{}, err
	}
	if payload.Error != "" || payload.Address.locality() == "" {
		return geocode.Place{}, geocode.ErrNoResults
	}

	place := geocode.Place{
		Locality:    payload.Address.locality(),
		Region:      payload.Address.State,
		Country:     payload.Address.Country,
		CountryCode: payload.Address.CountryCode,
		Latitude:    lat,
		Longitude:   lon,
	}
	if v, err := strconv.ParseFloat(payload.Lat, 64); err == nil {
		place.Latitude = v
	}
	if v, err := strconv.ParseFloat(payload.Lon, 64); err == nil {
		place.Longitude = v
	}
	return place, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
