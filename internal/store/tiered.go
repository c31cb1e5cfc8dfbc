package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/i474232898/weather-companion/internal/weather"
)

// TieredCache reads through a memory store in front of a persistent one.
type TieredCache struct {
	memory     *MemoryStore
	persistent weather.ForecastCache
}

func NewTieredCache(memory *MemoryStore, persistent weather.ForecastCache) *TieredCache {
	return &TieredCache{memory: memory, persistent: persistent}
}

// SaveForecast writes to both tiers; only the persistent tier can fail.
func (c *TieredCache) SaveForecast(ctx context.Context, entry weather.CachedForecast) error {
	_ = c.memory.SaveForecast(ctx, entry)
	if c.persistent == nil {
		return nil
	}
	return c.persistent.SaveForecast(ctx, entry)
}

// LatestForecast prefers the newer of the two tiers and warms memory from disk.
func (c *TieredCache) LatestForecast(ctx context.Context, key string) (weather.CachedForecast, error) {
	mem, memErr := c.memory.LatestForecast(ctx, key)
	if c.persistent == nil {
		return mem, memErr
	}

	disk, diskErr := c.persistent.LatestForecast(ctx, key)
	if diskErr != nil {
		if !errors.Is(diskErr, weather.ErrNotCached) {
			slog.Warn("persistent forecast cache read failed", "key", key, "err", diskErr)
		}
		return mem, memErr
	}

	if memErr != nil || disk.FetchedAt.After(mem.FetchedAt) {
		_ = c.memory.SaveForecast(ctx, disk)
		return disk, nil
	}
	return mem, nil
}
