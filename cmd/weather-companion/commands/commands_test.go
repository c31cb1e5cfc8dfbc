package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/weather-companion/internal/settings"
	"github.com/i474232898/weather-companion/internal/weather"
)

// upstream fakes Open-Meteo (forecast and geocoding) and Nominatim.
func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	now := time.Now().Truncate(time.Hour).Unix()

	mux := http.NewServeMux()
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(weather.RawForecast{
			Timezone:             "Europe/Helsinki",
			TimezoneAbbreviation: "EET",
			UTCOffsetSeconds:     7200,
			Current:              weather.RawCurrent{Time: now, Temperature: -4.5, WeatherCode: 71, IsDay: 1},
			Hourly: weather.RawHourly{
				Time:        []int64{now, now + 3600, now + 7200},
				Temperature: []float64{-4.5, -5, -5.5},
				WeatherCode: []int{71, 73, 3},
				IsDay:       []int{1, 1, 0},
			},
		})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"id": 638936, "name": "Rovaniemi", "latitude": 66.5, "longitude": 25.71667, "country": "Finland", "country_code": "FI", "admin1": "Lapland", "timezone": "Europe/Helsinki"}]}`))
	})
	mux.HandleFunc("/reverse", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"lat": "68.9", "lon": "27.0", "address": {"municipality": "Inari", "state": "Lapland", "country": "Finland", "country_code": "fi"}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupEnv(t *testing.T) {
	t.Helper()
	srv := upstream(t)
	dir := t.TempDir()

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "weather.db"))
	t.Setenv("SETTINGS_PATH", filepath.Join(dir, "settings.toml"))
	t.Setenv("FORECAST_BASE_URL", srv.URL)
	t.Setenv("GEOCODING_BASE_URL", srv.URL)
	t.Setenv("NOMINATIM_BASE_URL", srv.URL)
	t.Setenv("GOOGLE_GEOCODER_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "text")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	if appCtx != nil {
		appCtx.Close()
		appCtx = nil
	}
	return out.String(), err
}

func TestSettingsCommands(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "settings", "set", "language=fi", "units=imperial", "hours=6", "preset=auto")
	if err != nil {
		t.Fatalf("settings set: %v\n%s", err, out)
	}
	if !strings.Contains(out, "imperial") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = run(t, "settings", "show", "--json")
	if err != nil {
		t.Fatalf("settings show: %v", err)
	}
	var s settings.State
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if s.Language != "fi" || s.HourlyHours != 6 || s.ForcedPreset != "" {
		t.Fatalf("settings not persisted: %+v", s)
	}

	if _, err := run(t, "settings", "set", "hours=100"); err == nil {
		t.Fatalf("expected an error for hours out of range")
	}
	if _, err := run(t, "settings", "set", "colour=blue"); err == nil {
		t.Fatalf("expected an error for an unknown key")
	}
}

func TestFavoritesAndWeatherCommands(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "search", "Rovaniemi")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "Rovaniemi, Lapland, Finland") {
		t.Fatalf("unexpected search output:\n%s", out)
	}

	if out, err = run(t, "favorites", "add", "Rovaniemi"); err != nil {
		t.Fatalf("favorites add: %v\n%s", err, out)
	}
	if out, err = run(t, "favorites", "add", "--lat", "68.9", "--lon", "27.0"); err != nil {
		t.Fatalf("favorites add coords: %v\n%s", err, out)
	}

	out, err = run(t, "favorites", "list", "--json")
	if err != nil {
		t.Fatalf("favorites list: %v", err)
	}
	var favs []weather.LocationData
	if err := json.Unmarshal([]byte(out), &favs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(favs) != 2 || favs[0].NameEN != "Rovaniemi" || favs[1].NameEN != "Inari" {
		t.Fatalf("unexpected favorites %+v", favs)
	}

	if _, err := run(t, "favorites", "move", favs[1].ID, "0"); err != nil {
		t.Fatalf("favorites move: %v", err)
	}
	if _, err := run(t, "favorites", "move", favs[1].ID, "-1"); err == nil {
		t.Fatalf("expected an error for a negative position")
	}

	out, err = run(t, "weather", "--favorite", favs[0].ID)
	if err != nil {
		t.Fatalf("weather: %v\n%s", err, out)
	}
	for _, want := range []string{"Rovaniemi", "Europe/Helsinki", "Snow", "-4.5°C", "Preset: snowy"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in weather output:\n%s", want, out)
		}
	}

	if _, err := run(t, "settings", "set", "device-location=false"); err != nil {
		t.Fatalf("settings set: %v", err)
	}
	if _, err := run(t, "weather", "--here", "--lat", "68.9", "--lon", "27.0"); err == nil {
		t.Fatalf("expected permission error for --here")
	}

	if _, err := run(t, "favorites", "remove", favs[0].ID); err != nil {
		t.Fatalf("favorites remove: %v", err)
	}
	if _, err := run(t, "favorites", "remove", favs[0].ID); err == nil {
		t.Fatalf("expected an error removing twice")
	}

	if _, err := run(t, "weather"); err == nil {
		t.Fatalf("expected an error without a location")
	}
}

func TestFormatUnits(t *testing.T) {
	if got := formatTemp(20, true); got != "68.0°F" {
		t.Fatalf("formatTemp imperial = %s", got)
	}
	if got := formatTemp(-3.25, false); got != "-3.2°C" && got != "-3.3°C" {
		t.Fatalf("formatTemp metric = %s", got)
	}
	if got := formatWind(10, true); got != "22.4 mph" {
		t.Fatalf("formatWind imperial = %s", got)
	}
	if got := clock(time.Time{}); got != "-" {
		t.Fatalf("clock zero = %s", got)
	}
}
