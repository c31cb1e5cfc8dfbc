package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-companion/internal/logging"
	"github.com/i474232898/weather-companion/internal/weather"
)

const (
	defaultInterval = 30 * time.Minute
	jobTimeout      = 2 * time.Minute
)

// Favorites lists the locations whose weather is kept warm.
type Favorites interface {
	ListFavorites(ctx context.Context) ([]weather.LocationData, error)
}

// Refresher fetches and caches forecasts.
type Refresher interface {
	RefreshAll(ctx context.Context, locs []weather.LocationData) error
}

// Scheduler periodically refreshes cached weather for every favorite.
type Scheduler struct {
	scheduler *gocron.Scheduler
	favorites Favorites
	refresher Refresher
	interval  time.Duration
}

// New creates a new Scheduler.
func New(favorites Favorites, refresher Refresher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		favorites: favorites,
		refresher: refresher,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	slog.Info("scheduler started", "interval", s.interval)
	return nil
}

// RunOnce refreshes all favorites and returns how many were refreshed.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	locs, err := s.favorites.ListFavorites(ctx)
	if err != nil {
		slog.Error("scheduler: listing favorites failed", "err", err)
		return 0
	}
	if len(locs) == 0 {
		slog.Debug("scheduler: no favorites to refresh")
		return 0
	}

	slog.Info("scheduler: refreshing favorites", "count", len(locs))
	done := logging.OperationStart("scheduled_refresh", map[string]any{"count": len(locs)})
	done(s.refresher.RefreshAll(ctx, locs))
	return len(locs)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
