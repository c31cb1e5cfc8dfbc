package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/i474232898/weather-companion/internal/weather"
)

func entryAt(key string, at time.Time, temp float64) weather.CachedForecast {
	return weather.CachedForecast{
		Key:       key,
		FetchedAt: at,
		Raw:       weather.RawForecast{Current: weather.RawCurrent{Temperature: temp}},
	}
}

func TestMemoryStoreRetentionByCount(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, 0)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_ = s.SaveForecast(ctx, entryAt("k", base.Add(time.Duration(i)*time.Minute), float64(i)))
	}

	latest, err := s.LatestForecast(ctx, "k")
	if err != nil {
		t.Fatalf("LatestForecast: %v", err)
	}
	if latest.Raw.Current.Temperature != 2 {
		t.Fatalf("expected newest entry, got %v", latest.Raw.Current.Temperature)
	}

	history, err := s.History("k", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 retained entries, got %d", len(history))
	}
}

func TestMemoryStoreRetentionByAge(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return now }

	_ = s.SaveForecast(ctx, entryAt("k", now.Add(-3*time.Hour), 1))
	_ = s.SaveForecast(ctx, entryAt("k", now.Add(-2*time.Hour), 2))
	_ = s.SaveForecast(ctx, entryAt("k", now.Add(-10*time.Minute), 3))

	history, err := s.History("k", now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Raw.Current.Temperature != 3 {
		t.Fatalf("expected only the fresh entry, got %+v", history)
	}

	// The newest entry survives even when it is older than maxAge.
	_ = s.SaveForecast(ctx, entryAt("old", now.Add(-5*time.Hour), 9))
	if _, err := s.LatestForecast(ctx, "old"); err != nil {
		t.Fatalf("expected newest entry to be kept, got %v", err)
	}
}

func TestMemoryStoreMisses(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)

	if _, err := s.LatestForecast(context.Background(), "missing"); !errors.Is(err, weather.ErrNotCached) {
		t.Fatalf("expected ErrNotCached, got %v", err)
	}
	if _, err := s.History("missing", time.Time{}, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_ = s.SaveForecast(context.Background(), entryAt("k", time.Now(), 1))
	s.Forget("k")
	if _, err := s.LatestForecast(context.Background(), "k"); !errors.Is(err, weather.ErrNotCached) {
		t.Fatalf("expected forgotten key to miss, got %v", err)
	}
}
