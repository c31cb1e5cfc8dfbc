package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-companion/internal/weather"
)

// ForecastHistory holds a time-ordered list of cached forecasts for a location.
type ForecastHistory struct {
	Entries []weather.CachedForecast
}

// MemoryStore is a concurrency-safe in-memory forecast cache.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*ForecastHistory

	// retention configuration
	maxHistory int           // max number of forecasts per location
	maxAge     time.Duration // optional max age for forecasts

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ForecastHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveForecast appends a forecast for a location and enforces retention.
func (s *MemoryStore) SaveForecast(_ context.Context, entry weather.CachedForecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[entry.Key]
	if !ok {
		history = &ForecastHistory{}
		s.data[entry.Key] = history
	}

	history.Entries = append(history.Entries, entry)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Entries) > s.maxHistory {
		over := len(history.Entries) - s.maxHistory
		history.Entries = history.Entries[over:]
	}

	// Enforce retention by age, always keeping the newest entry.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Entries)-1; i++ {
			if !history.Entries[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		history.Entries = history.Entries[i:]
	}
	return nil
}

// LatestForecast returns the most recent forecast for a location.
func (s *MemoryStore) LatestForecast(_ context.Context, key string) (weather.CachedForecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Entries) == 0 {
		return weather.CachedForecast{}, weather.ErrNotCached
	}
	return history.Entries[len(history.Entries)-1], nil
}

// History returns the cached forecasts for a location fetched between from and to (inclusive).
func (s *MemoryStore) History(key string, from, to time.Time) ([]weather.CachedForecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Entries) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.CachedForecast
	for _, e := range history.Entries {
		if !e.FetchedAt.Before(from) && !e.FetchedAt.After(to) {
			result = append(result, e)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Forget drops everything cached for a location.
func (s *MemoryStore) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}
