package app

import (
	"context"
	"log/slog"

	"github.com/i474232898/weather-companion/internal/config"
	"github.com/i474232898/weather-companion/internal/geocode"
	"github.com/i474232898/weather-companion/internal/settings"
	"github.com/i474232898/weather-companion/internal/store"
	"github.com/i474232898/weather-companion/internal/weather"
	"github.com/i474232898/weather-companion/internal/weather/providers"
)

// Open constructs the dependency graph from cfg.
func Open(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	prefs, err := settings.Open(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}

	db, err := store.OpenSQL(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	// Recent forecasts stay in memory in front of the database.
	memStore := store.NewMemoryStore(cfg.CacheMaxHistory, 0)
	cache := store.NewTieredCache(memStore, db)

	forecasts := weather.NewService(cache,
		providers.NewOpenMeteoProvider(cfg.ClientConfig(cfg.ForecastBaseURL)),
		weather.WithMaxAge(cfg.CacheMaxAge))

	// Google answers reverse lookups when a key is configured; Nominatim
	// covers the rest and backs Google up.
	nominatim := providers.NewNominatimGeocoder(cfg.ClientConfig(cfg.NominatimBaseURL))
	var primary geocode.ReverseGeocoder = nominatim
	if cfg.GoogleGeocoderAPIKey != "" {
		primary = providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey)
	}
	geo := geocode.NewService(
		providers.NewOpenMeteoGeocoder(cfg.ClientConfig(cfg.GeocodingBaseURL)),
		primary, nominatim)

	a := New(geo, forecasts, db, prefs)
	a.History = memStore
	a.closers = append(a.closers, db)
	a.pinger = db

	slog.Debug("application wired",
		"db_driver", cfg.DBDriver,
		"reverse_geocoder", primary.Name(),
		"cache_max_age", cfg.CacheMaxAge)
	return a, nil
}

