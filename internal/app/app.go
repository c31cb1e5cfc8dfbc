package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/i474232898/weather-companion/internal/geocode"
	"github.com/i474232898/weather-companion/internal/settings"
	"github.com/i474232898/weather-companion/internal/store"
	"github.com/i474232898/weather-companion/internal/weather"
)

// ErrForecastUnavailable is returned when no forecast could be fetched or
// served from the cache.
var ErrForecastUnavailable = errors.New("forecast unavailable")

// Geocoder resolves place names and coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]weather.LocationData, error)
	Reverse(ctx context.Context, lat, lon float64) (weather.LocationData, error)
	CurrentLocation(ctx context.Context, lat, lon float64, allowed bool) (weather.LocationData, error)
}

// Forecaster returns display forecasts and keeps the cache warm.
type Forecaster interface {
	GetWeather(ctx context.Context, loc weather.LocationData, req weather.Request) (weather.WeatherData, error)
	RefreshAll(ctx context.Context, locs []weather.LocationData, days int) error
}

// FavoriteStore persists the user's saved locations in display order.
type FavoriteStore interface {
	ListFavorites(ctx context.Context) ([]weather.LocationData, error)
	GetFavorite(ctx context.Context, id string) (weather.LocationData, error)
	AddFavorite(ctx context.Context, loc weather.LocationData) (weather.LocationData, error)
	RemoveFavorite(ctx context.Context, id string) error
	MoveFavorite(ctx context.Context, id string, position int) error
}

// HistoryReader returns the forecasts fetched for a location in a time range.
type HistoryReader interface {
	History(key string, from, to time.Time) ([]weather.CachedForecast, error)
	Forget(key string)
}

// App is the use-case layer shared by the HTTP API and the CLI.
type App struct {
	Geocoder  Geocoder
	Forecasts Forecaster
	Favorites FavoriteStore
	Settings  *settings.Store
	History   HistoryReader

	closers []io.Closer
	pinger  interface{ Ping(context.Context) error }
}

func New(geo Geocoder, forecasts Forecaster, favorites FavoriteStore, prefs *settings.Store) *App {
	return &App{
		Geocoder:  geo,
		Forecasts: forecasts,
		Favorites: favorites,
		Settings:  prefs,
	}
}

// Close releases the resources opened by Open.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Ping checks that the database is reachable.
func (a *App) Ping(ctx context.Context) error {
	if a.pinger == nil {
		return nil
	}
	return a.pinger.Ping(ctx)
}

// Search looks places up by name.
func (a *App) Search(ctx context.Context, query string) ([]weather.LocationData, error) {
	return a.Geocoder.Search(ctx, query)
}

// Reverse names the place at the given coordinates.
func (a *App) Reverse(ctx context.Context, lat, lon float64) (weather.LocationData, error) {
	return a.Geocoder.Reverse(ctx, lat, lon)
}

// WeatherAt returns the forecast for arbitrary coordinates. The place is named
// when a geocoder knows it; otherwise the bare coordinates are used.
func (a *App) WeatherAt(ctx context.Context, lat, lon float64, refresh bool) (weather.WeatherData, error) {
	if err := geocode.ValidateCoordinates(lat, lon); err != nil {
		return weather.WeatherData{}, err
	}

	loc, err := a.Geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		if !errors.Is(err, geocode.ErrNoResults) {
			slog.Warn("naming location failed, using coordinates", "lat", lat, "lon", lon, "err", err)
		}
		loc = weather.LocationData{Latitude: lat, Longitude: lon}
	}
	return a.weatherFor(ctx, loc, refresh)
}

// CurrentLocationWeather returns the forecast at the device position when the
// settings allow using it.
func (a *App) CurrentLocationWeather(ctx context.Context, lat, lon float64) (weather.WeatherData, error) {
	loc, err := a.Geocoder.CurrentLocation(ctx, lat, lon, a.Settings.Get().UseDeviceLocation)
	if err != nil {
		return weather.WeatherData{}, err
	}
	return a.weatherFor(ctx, loc, false)
}

// ListFavorites returns the saved locations in display order.
func (a *App) ListFavorites(ctx context.Context) ([]weather.LocationData, error) {
	return a.Favorites.ListFavorites(ctx)
}

// AddFavorite saves loc. Unnamed locations are named by reverse geocoding first.
func (a *App) AddFavorite(ctx context.Context, loc weather.LocationData) (weather.LocationData, error) {
	if err := geocode.ValidateCoordinates(loc.Latitude, loc.Longitude); err != nil {
		return weather.LocationData{}, err
	}
	loc.ID = ""

	if loc.NameEN == "" && loc.NameFI == "" {
		named, err := a.Geocoder.Reverse(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			return weather.LocationData{}, err
		}
		loc = named
	}
	return a.Favorites.AddFavorite(ctx, loc)
}

// RemoveFavorite deletes a saved location.
func (a *App) RemoveFavorite(ctx context.Context, id string) error {
	loc, err := a.Favorites.GetFavorite(ctx, id)
	if err != nil {
		return err
	}
	if err := a.Favorites.RemoveFavorite(ctx, id); err != nil {
		return err
	}
	if a.History != nil {
		a.History.Forget(loc.Key())
	}
	return nil
}

// MoveFavorite changes where a saved location appears in the list.
func (a *App) MoveFavorite(ctx context.Context, id string, position int) error {
	return a.Favorites.MoveFavorite(ctx, id, position)
}

// FavoriteWeather returns the forecast for a saved location.
func (a *App) FavoriteWeather(ctx context.Context, id string, refresh bool) (weather.WeatherData, error) {
	loc, err := a.Favorites.GetFavorite(ctx, id)
	if err != nil {
		return weather.WeatherData{}, err
	}
	return a.weatherFor(ctx, loc, refresh)
}

// RefreshAll fetches fresh forecasts for locs, as many days as the settings ask for.
func (a *App) RefreshAll(ctx context.Context, locs []weather.LocationData) error {
	return a.Forecasts.RefreshAll(ctx, locs, a.Settings.Get().ForecastDays)
}

// RefreshFavorites fetches fresh forecasts for every saved location.
func (a *App) RefreshFavorites(ctx context.Context) error {
	locs, err := a.Favorites.ListFavorites(ctx)
	if err != nil {
		return err
	}
	return a.RefreshAll(ctx, locs)
}

// Snapshot is the current conditions of one cached forecast.
type Snapshot struct {
	FetchedAt time.Time              `json:"fetchedAt"`
	Current   weather.CurrentWeather `json:"current"`
}

// CurrentHistory returns the current conditions of every forecast fetched for
// the coordinates between from and to.
func (a *App) CurrentHistory(lat, lon float64, from, to time.Time) ([]Snapshot, error) {
	if a.History == nil {
		return nil, store.ErrNotFound
	}
	loc := weather.LocationData{Latitude: lat, Longitude: lon}
	entries, err := a.History.History(loc.Key(), from, to)
	if err != nil {
		return nil, err
	}

	lang := a.Settings.Get().Language
	out := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		data := weather.MapForecast(loc, e.Raw, e.FetchedAt, weather.MapOptions{HourlyHours: 1, Language: lang})
		out = append(out, Snapshot{FetchedAt: e.FetchedAt, Current: data.Current})
	}
	return out, nil
}

// CurrentSettings returns the user's preferences.
func (a *App) CurrentSettings() settings.State {
	return a.Settings.Get()
}

// UpdateSettings changes and saves the user's preferences.
func (a *App) UpdateSettings(fn func(*settings.State) error) (settings.State, error) {
	return a.Settings.Update(fn)
}

// Presets lists every visual weather preset.
func (a *App) Presets() []weather.Preset {
	return weather.Presets()
}

func (a *App) weatherFor(ctx context.Context, loc weather.LocationData, refresh bool) (weather.WeatherData, error) {
	prefs := a.Settings.Get()
	data, err := a.Forecasts.GetWeather(ctx, loc, weather.Request{
		Refresh:      refresh,
		HourlyHours:  prefs.HourlyHours,
		ForecastDays: prefs.ForecastDays,
		ForcedPreset: prefs.ForcedPreset,
		Language:     prefs.Language,
	})
	if err != nil {
		return weather.WeatherData{}, fmt.Errorf("%w: %w", ErrForecastUnavailable, err)
	}
	return data, nil
}
