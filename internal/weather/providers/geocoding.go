package providers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/i474232898/weather-companion/internal/geocode"
)

const DefaultOpenMeteoGeocodingURL = "https://geocoding-api.open-meteo.com/v1"

// OpenMeteoGeocoder implements geocode.Searcher on the Open-Meteo geocoding API.
type OpenMeteoGeocoder struct {
	fetch *fetcher
	count int
}

func NewOpenMeteoGeocoder(cfg ClientConfig) *OpenMeteoGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenMeteoGeocodingURL
	}
	return &OpenMeteoGeocoder{fetch: newFetcher("openmeteo-geocoding", cfg), count: 10}
}

func (g *OpenMeteoGeocoder) Name() string {
	return g.fetch.name
}

func (g *OpenMeteoGeocoder) Search(ctx context.Context, query, lang string) ([]geocode.SearchResult, error) {
	values := url.Values{}
	values.Set("name", query)
	values.Set("count", strconv.Itoa(g.count))
	values.Set("language", lang)
	values.Set("format", "json")

	// "results" is absent when nothing matched.
	var payload struct {
		Results []struct {
			ID          int64   `json:"id"`
			Name        string  `json:"name"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
			CountryCode string  `json:"country_code"`
			Country     string  `json:"country"`
			Admin1      string  `json:"admin1"`
			Timezone    string  `json:"timezone"`
		} `json:"results"`
	}
	if err := g.fetch.getJSON(ctx, "/search", values, &payload); err != nil {
		return nil, err
	}

	out := make([]geocode.SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, geocode.SearchResult{
			ID:          r.ID,
			Name:        r.Name,
			Region:      r.Admin1,
			Country:     r.Country,
			CountryCode: r.CountryCode,
			Timezone:    r.Timezone,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
		})
	}
	return out, nil
}
