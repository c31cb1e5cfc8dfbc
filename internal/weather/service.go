package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/weather-companion/internal/logging"
)

const (
	DefaultHourlyHours  = 24
	DefaultForecastDays = 7
	DefaultMaxAge       = time.Hour
)

// Request controls a single weather lookup.
type Request struct {
	// Refresh skips the cache and always asks the provider.
	Refresh      bool
	HourlyHours  int
	ForecastDays int
	ForcedPreset string
	Language     string
}

// Service fetches forecasts through a cache and maps them to the display model.
type Service struct {
	cache    ForecastCache
	provider ForecastProvider
	maxAge   time.Duration
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithMaxAge sets how long a cached forecast is served without refetching.
func WithMaxAge(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(cache ForecastCache, provider ForecastProvider, opts ...Option) *Service {
	s := &Service{
		cache:    cache,
		provider: provider,
		maxAge:   DefaultMaxAge,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetWeather returns the display model for loc. A fresh cached forecast is
// used when present; if the provider fails a stale cached forecast is served
// and marked as such.
func (s *Service) GetWeather(ctx context.Context, loc LocationData, req Request) (WeatherData, error) {
	if req.HourlyHours <= 0 {
		req.HourlyHours = DefaultHourlyHours
	}
	if req.ForecastDays <= 0 {
		req.ForecastDays = DefaultForecastDays
	}

	now := s.now()
	key := loc.Key()

	cached, cacheErr := s.cachedForecast(ctx, key)
	if cacheErr == nil && !req.Refresh && cached.Days >= req.ForecastDays && now.Sub(cached.FetchedAt) <= s.maxAge {
		return s.mapEntry(loc, cached, now, req, false), nil
	}

	entry, err := s.fetch(ctx, loc, req.ForecastDays)
	if err != nil {
		if cacheErr == nil {
			slog.Warn("serving stale forecast", "location", key, "fetched_at", cached.FetchedAt, "err", err)
			return s.mapEntry(loc, cached, now, req, true), nil
		}
		return WeatherData{}, err
	}
	return s.mapEntry(loc, entry, now, req, false), nil
}

// Refresh fetches and caches days of forecast for loc.
func (s *Service) Refresh(ctx context.Context, loc LocationData, days int) error {
	if days <= 0 {
		days = DefaultForecastDays
	}
	_, err := s.fetch(ctx, loc, days)
	return err
}

// RefreshAll refreshes every location concurrently and returns the joined errors.
func (s *Service) RefreshAll(ctx context.Context, locs []LocationData, days int) error {
	done := logging.OperationStart("refresh_forecasts", map[string]any{"count": len(locs), "days": days})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, loc := range locs {
		wg.Add(1)
		go func(loc LocationData) {
			defer wg.Done()
			if err := s.Refresh(ctx, loc, days); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", loc.Key(), err))
				mu.Unlock()
			}
		}(loc)
	}
	wg.Wait()

	err := errors.Join(errs...)
	done(err)
	return err
}

func (s *Service) cachedForecast(ctx context.Context, key string) (CachedForecast, error) {
	if s.cache == nil {
		return CachedForecast{}, ErrNotCached
	}
	entry, err := s.cache.LatestForecast(ctx, key)
	if err != nil && !errors.Is(err, ErrNotCached) {
		slog.Warn("forecast cache read failed", "location", key, "err", err)
	}
	return entry, err
}

func (s *Service) fetch(ctx context.Context, loc LocationData, days int) (CachedForecast, error) {
	if s.provider == nil {
		return CachedForecast{}, fmt.Errorf("no forecast provider configured")
	}

	done := logging.OperationStart("fetch_forecast", map[string]any{
		"provider": s.provider.Name(),
		"location": loc.Key(),
		"days":     days,
	})
	raw, err := s.provider.FetchForecast(ctx, loc.Latitude, loc.Longitude, days)
	done(err)
	if err != nil {
		return CachedForecast{}, fmt.Errorf("%s forecast: %w", s.provider.Name(), err)
	}

	entry := CachedForecast{Key: loc.Key(), Raw: raw, FetchedAt: s.now().UTC(), Days: days}
	if s.cache != nil {
		if err := s.cache.SaveForecast(ctx, entry); err != nil {
			slog.Warn("failed to cache forecast", "location", entry.Key, "err", err)
		}
	}
	return entry, nil
}

func (s *Service) mapEntry(loc LocationData, entry CachedForecast, now time.Time, req Request, stale bool) WeatherData {
	data := MapForecast(loc, entry.Raw, now, MapOptions{
		HourlyHours:  req.HourlyHours,
		ForcedPreset: req.ForcedPreset,
		Language:     req.Language,
		ForecastDays: req.ForecastDays,
	})
	data.FetchedAt = entry.FetchedAt
	data.Stale = stale
	return data
}
