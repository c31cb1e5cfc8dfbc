package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/weather-companion/internal/geocode"
	"github.com/i474232898/weather-companion/internal/settings"
	"github.com/i474232898/weather-companion/internal/store"
	"github.com/i474232898/weather-companion/internal/weather"
)

type fakeGeocoder struct {
	places     map[string]weather.LocationData
	reverseErr error
}

func (g *fakeGeocoder) Search(ctx context.Context, query string) ([]weather.LocationData, error) {
	if loc, ok := g.places[query]; ok {
		return []weather.LocationData{loc}, nil
	}
	return nil, geocode.ErrNoResults
}

func (g *fakeGeocoder) Reverse(ctx context.Context, lat, lon float64) (weather.LocationData, error) {
	if g.reverseErr != nil {
		return weather.LocationData{}, g.reverseErr
	}
	return weather.LocationData{NameEN: "Helsinki", NameFI: "Helsinki", Latitude: lat, Longitude: lon}, nil
}

func (g *fakeGeocoder) CurrentLocation(ctx context.Context, lat, lon float64, allowed bool) (weather.LocationData, error) {
	if !allowed {
		return weather.LocationData{}, geocode.ErrLocationPermissionDenied
	}
	return g.Reverse(ctx, lat, lon)
}

type fakeForecaster struct {
	requests []weather.Request
	locs     []weather.LocationData
	days     int
	err      error
}

func (f *fakeForecaster) GetWeather(ctx context.Context, loc weather.LocationData, req weather.Request) (weather.WeatherData, error) {
	f.requests = append(f.requests, req)
	f.locs = append(f.locs, loc)
	if f.err != nil {
		return weather.WeatherData{}, f.err
	}
	return weather.WeatherData{Location: loc}, nil
}

func (f *fakeForecaster) RefreshAll(ctx context.Context, locs []weather.LocationData, days int) error {
	f.locs = append(f.locs, locs...)
	f.days = days
	return f.err
}

func newTestApp(t *testing.T) (*App, *fakeGeocoder, *fakeForecaster) {
	t.Helper()
	db, err := store.OpenSQL(context.Background(), store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	prefs, err := settings.Open(filepath.Join(t.TempDir(), "settings.toml"))
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}

	geo := &fakeGeocoder{places: map[string]weather.LocationData{
		"Oulu": {NameEN: "Oulu", NameFI: "Oulu", Latitude: 65.0121, Longitude: 25.4651},
	}}
	fc := &fakeForecaster{}
	a := New(geo, fc, db, prefs)
	a.closers = append(a.closers, db)
	t.Cleanup(func() { a.Close() })
	return a, geo, fc
}

func TestWeatherAtUsesSettings(t *testing.T) {
	ctx := context.Background()
	a, _, fc := newTestApp(t)

	if _, err := a.UpdateSettings(func(s *settings.State) error {
		s.Language = "fi"
		s.HourlyHours = 6
		s.ForcedPreset = weather.PresetFoggy
		return nil
	}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	data, err := a.WeatherAt(ctx, 60.17, 24.94, true)
	if err != nil {
		t.Fatalf("WeatherAt: %v", err)
	}
	if data.Location.NameFI != "Helsinki" {
		t.Fatalf("expected named location, got %+v", data.Location)
	}

	req := fc.requests[0]
	if !req.Refresh || req.HourlyHours != 6 || req.Language != "fi" || req.ForcedPreset != weather.PresetFoggy {
		t.Fatalf("settings not applied to request: %+v", req)
	}
}

func TestWeatherAtWithoutPlaceName(t *testing.T) {
	a, geo, fc := newTestApp(t)
	geo.reverseErr = geocode.ErrNoResults

	if _, err := a.WeatherAt(context.Background(), 10, 10, false); err != nil {
		t.Fatalf("WeatherAt: %v", err)
	}
	if loc := fc.locs[0]; loc.NameEN != "" || loc.Latitude != 10 {
		t.Fatalf("expected bare coordinates, got %+v", loc)
	}

	if _, err := a.WeatherAt(context.Background(), 95, 10, false); !errors.Is(err, geocode.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}

	fc.err = errors.New("provider down")
	if _, err := a.WeatherAt(context.Background(), 10, 10, false); !errors.Is(err, ErrForecastUnavailable) {
		t.Fatalf("expected ErrForecastUnavailable, got %v", err)
	}
}

func TestCurrentLocationWeatherRespectsPermission(t *testing.T) {
	a, _, _ := newTestApp(t)

	if _, err := a.CurrentLocationWeather(context.Background(), 60.17, 24.94); err != nil {
		t.Fatalf("expected device location to be allowed by default, got %v", err)
	}

	if _, err := a.UpdateSettings(func(s *settings.State) error {
		s.UseDeviceLocation = false
		return nil
	}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if _, err := a.CurrentLocationWeather(context.Background(), 60.17, 24.94); !errors.Is(err, geocode.ErrLocationPermissionDenied) {
		t.Fatalf("expected ErrLocationPermissionDenied, got %v", err)
	}
}

func TestFavoritesFlow(t *testing.T) {
	ctx := context.Background()
	a, _, fc := newTestApp(t)

	results, err := a.Search(ctx, "Oulu")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	oulu, err := a.AddFavorite(ctx, results[0])
	if err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}

	// Unnamed locations are named through reverse geocoding.
	hki, err := a.AddFavorite(ctx, weather.LocationData{Latitude: 60.17, Longitude: 24.94})
	if err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if hki.NameEN != "Helsinki" {
		t.Fatalf("expected reverse geocoded name, got %+v", hki)
	}

	if _, err := a.AddFavorite(ctx, results[0]); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	if err := a.MoveFavorite(ctx, hki.ID, 0); err != nil {
		t.Fatalf("MoveFavorite: %v", err)
	}
	favs, err := a.ListFavorites(ctx)
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if len(favs) != 2 || favs[0].ID != hki.ID || favs[1].ID != oulu.ID {
		t.Fatalf("unexpected order %+v", favs)
	}

	data, err := a.FavoriteWeather(ctx, oulu.ID, false)
	if err != nil {
		t.Fatalf("FavoriteWeather: %v", err)
	}
	if data.Location.ID != oulu.ID {
		t.Fatalf("expected favorite location, got %+v", data.Location)
	}

	if _, err := a.UpdateSettings(func(s *settings.State) error {
		s.ForecastDays = 14
		return nil
	}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	fc.locs = nil
	if err := a.RefreshFavorites(ctx); err != nil {
		t.Fatalf("RefreshFavorites: %v", err)
	}
	if len(fc.locs) != 2 {
		t.Fatalf("expected both favorites refreshed, got %d", len(fc.locs))
	}
	if fc.days != 14 {
		t.Fatalf("expected refresh for the configured 14 days, got %d", fc.days)
	}

	if err := a.RemoveFavorite(ctx, oulu.ID); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	if _, err := a.FavoriteWeather(ctx, oulu.ID, false); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCurrentHistory(t *testing.T) {
	a, _, _ := newTestApp(t)

	if _, err := a.CurrentHistory(60.17, 24.94, time.Time{}, time.Now()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without history, got %v", err)
	}

	mem := store.NewMemoryStore(10, 0)
	a.History = mem
	loc := weather.LocationData{Latitude: 60.17, Longitude: 24.94}
	at := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	_ = mem.SaveForecast(context.Background(), weather.CachedForecast{
		Key:       loc.Key(),
		FetchedAt: at,
		Raw: weather.RawForecast{
			Timezone: "Europe/Helsinki",
			Current:  weather.RawCurrent{Time: at.Unix(), Temperature: 17.5, WeatherCode: 3, IsDay: 1},
		},
	})

	snaps, err := a.CurrentHistory(60.17, 24.94, at.Add(-time.Hour), at.Add(time.Hour))
	if err != nil {
		t.Fatalf("CurrentHistory: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Current.TemperatureC != 17.5 || snaps[0].Current.Condition != weather.ConditionCloudy {
		t.Fatalf("unexpected snapshots %+v", snaps)
	}

	saved, err := a.AddFavorite(context.Background(), weather.LocationData{NameEN: "Helsinki", Latitude: 60.17, Longitude: 24.94})
	if err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if err := a.RemoveFavorite(context.Background(), saved.ID); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	if _, err := a.CurrentHistory(60.17, 24.94, at.Add(-time.Hour), at.Add(time.Hour)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected history dropped with the favorite, got %v", err)
	}
}
