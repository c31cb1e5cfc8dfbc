package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-companion/internal/geocode"
)

func testConfig(url string) ClientConfig {
	return ClientConfig{
		BaseURL:   url,
		UserAgent: "weather-companion-test",
		Timeout:   2 * time.Second,
		Backoff: BackoffConfig{
			MaxRetries:      2,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
		},
	}
}

const forecastBody = `{
  "latitude": 60.17, "longitude": 24.94,
  "timezone": "Europe/Helsinki", "timezone_abbreviation": "EEST", "utc_offset_seconds": 10800,
  "current": {"time": 1718470800, "temperature_2m": 18.5, "is_day": 1, "weather_code": 2, "wind_speed_10m": 4.1},
  "hourly": {"time": [1718470800, 1718474400], "temperature_2m": [18.5, 17.9], "weather_code": [2, 3],
             "precipitation_probability": [null, 20], "wind_speed_10m": [4.1, 3.8], "is_day": [1, 1]},
  "daily": {"time": [1718398800], "weather_code": [3], "temperature_2m_max": [21.0], "temperature_2m_min": [11.2],
            "sunrise": [1718412840], "sunset": [1718481000], "precipitation_sum": [0.4], "precipitation_probability_max": [35]}
}`

func TestOpenMeteoFetchForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("timezone") != "auto" || q.Get("timeformat") != "unixtime" || q.Get("forecast_days") != "3" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("latitude") != "60.1700" {
			t.Errorf("unexpected latitude %s", q.Get("latitude"))
		}
		if ua := r.Header.Get("User-Agent"); ua != "weather-companion-test" {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(testConfig(srv.URL))
	raw, err := p.FetchForecast(context.Background(), 60.17, 24.94, 3)
	if err != nil {
		t.Fatalf("FetchForecast: %v", err)
	}
	if raw.Timezone != "Europe/Helsinki" || raw.UTCOffsetSeconds != 10800 {
		t.Fatalf("unexpected zone %s %d", raw.Timezone, raw.UTCOffsetSeconds)
	}
	if len(raw.Hourly.Time) != 2 || raw.Hourly.PrecipitationProbability[0] != 0 || raw.Hourly.PrecipitationProbability[1] != 20 {
		t.Fatalf("unexpected hourly %+v", raw.Hourly)
	}
	if raw.Daily.Sunset[0] != 1718481000 {
		t.Fatalf("unexpected daily %+v", raw.Daily)
	}

	if _, err := p.FetchForecast(context.Background(), 60, 24, 0); err == nil {
		t.Fatalf("expected error for zero days")
	}
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(testConfig(srv.URL))
	if _, err := p.FetchForecast(context.Background(), 60.17, 24.94, 1); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestFetcherGivesUpAfterMaxRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(testConfig(srv.URL))
	_, err := p.FetchForecast(context.Background(), 60.17, 24.94, 1)
	if !errors.Is(err, errRateLimited) {
		t.Fatalf("expected rate limited error, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 1 attempt plus 2 retries, got %d", got)
	}
}

func TestFetcherDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": true, "reason": "Latitude must be in range of -90 to 90°."}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(testConfig(srv.URL))
	_, err := p.FetchForecast(context.Background(), 99, 24.94, 1)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Reason == "" {
		t.Fatalf("unexpected APIError %+v", apiErr)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestOpenMeteoGeocoderSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("name") {
		case "Tampere":
			if r.URL.Query().Get("language") != "fi" {
				t.Errorf("expected language fi, got %s", r.URL.Query().Get("language"))
			}
			_, _ = w.Write([]byte(`{"results": [{"id": 634963, "name": "Tampere", "latitude": 61.49911,
				"longitude": 23.78712, "country_code": "FI", "country": "Suomi", "admin1": "Pirkanmaa",
				"timezone": "Europe/Helsinki"}]}`))
		default:
			_, _ = w.Write([]byte(`{"generationtime_ms": 0.5}`))
		}
	}))
	defer srv.Close()

	g := NewOpenMeteoGeocoder(testConfig(srv.URL))

	results, err := g.Search(context.Background(), "Tampere", "fi")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != 634963 || results[0].Region != "Pirkanmaa" || results[0].Country != "Suomi" {
		t.Fatalf("unexpected results %+v", results)
	}

	results, err = g.Search(context.Background(), "Nowhere", "en")
	if err != nil || len(results) != 0 {
		t.Fatalf("expected no results and no error, got %v, %v", results, err)
	}
}

func TestNominatimReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/reverse" || q.Get("format") != "jsonv2" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if q.Get("lat") == "0.000000" {
			_, _ = w.Write([]byte(`{"error": "Unable to geocode"}`))
			return
		}
		name := "Porvoo"
		if q.Get("accept-language") == "sv" {
			name = "Borgå"
		}
		_, _ = w.Write([]byte(`{"lat": "60.3932", "lon": "25.6651", "address": {"town": "` + name +
			`", "county": "Itä-Uusimaa", "state": "Uusimaa", "country": "Finland", "country_code": "fi"}}`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(testConfig(srv.URL))

	place, err := g.Reverse(context.Background(), 60.39, 25.66, "sv")
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if place.Locality != "Borgå" || place.Region != "Uusimaa" || place.CountryCode != "fi" {
		t.Fatalf("unexpected place %+v", place)
	}
	if place.Latitude != 60.3932 {
		t.Fatalf("expected latitude from response, got %v", place.Latitude)
	}

	if _, err := g.Reverse(context.Background(), 0, 0, "en"); !errors.Is(err, geocode.ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestGoogleGeocoderPicksLocality(t *testing.T) {
	g := NewGoogleGeocoder("test-key")
	var la geocode.LanguageAware = g
	if la.Localized() {
		t.Fatalf("google geocoder should report that it ignores the language")
	}
	g.reverse = func(loc geocoder.Location) ([]geocoder.Address, error) {
		return []geocoder.Address{
			{Street: "Mannerheimintie", City: "Helsinki", Country: "Finland", Types: "street_address"},
			{City: "Helsinki", State: "Uusimaa", Country: "Finland", Types: "locality"},
		}, nil
	}

	place, err := g.Reverse(context.Background(), 60.17, 24.94, "fi")
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if place.Locality != "Helsinki" || place.Region != "Uusimaa" {
		t.Fatalf("unexpected place %+v", place)
	}

	g.reverse = func(loc geocoder.Location) ([]geocoder.Address, error) {
		return []geocoder.Address{{Country: "Finland"}}, nil
	}
	if _, err := g.Reverse(context.Background(), 60, 25, "en"); !errors.Is(err, geocode.ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	block := make(chan struct{})
	defer close(block)
	g.reverse = func(loc geocoder.Location) ([]geocoder.Address, error) {
		<-block
		return nil, nil
	}
	if _, err := g.Reverse(ctx, 60, 25, "en"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
