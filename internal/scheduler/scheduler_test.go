package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/weather-companion/internal/logging"
	"github.com/i474232898/weather-companion/internal/weather"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	l, err := logging.New("debug", logging.FormatJSON, &buf)
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	prev := slog.Default()
	slog.SetDefault(l)
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

type stubFavorites struct {
	locs []weather.LocationData
	err  error
}

func (f stubFavorites) ListFavorites(ctx context.Context) ([]weather.LocationData, error) {
	return f.locs, f.err
}

type recordingRefresher struct {
	calls [][]weather.LocationData
	err   error
}

func (r *recordingRefresher) RefreshAll(ctx context.Context, locs []weather.LocationData) error {
	r.calls = append(r.calls, locs)
	return r.err
}

func TestRunOnceRefreshesFavorites(t *testing.T) {
	favs := stubFavorites{locs: []weather.LocationData{
		{NameEN: "Helsinki", Latitude: 60.17, Longitude: 24.94},
		{NameEN: "Turku", Latitude: 60.45, Longitude: 22.27},
	}}
	ref := &recordingRefresher{err: errors.New("one failed")}
	s := New(favs, ref, time.Minute)
	logs := captureLogs(t)

	if n := s.RunOnce(context.Background()); n != 2 {
		t.Fatalf("expected 2 refreshed, got %d", n)
	}
	if len(ref.calls) != 1 || len(ref.calls[0]) != 2 {
		t.Fatalf("unexpected refresh calls %+v", ref.calls)
	}
	out := logs.String()
	if !strings.Contains(out, `"operation":"scheduled_refresh"`) || !strings.Contains(out, "operation failed") {
		t.Fatalf("expected the refresh to be logged as a failed operation:\n%s", out)
	}
}

func TestRunOnceSkipsWithoutFavorites(t *testing.T) {
	ref := &recordingRefresher{}

	s := New(stubFavorites{}, ref, 0)
	if s.interval != defaultInterval {
		t.Fatalf("expected default interval, got %v", s.interval)
	}
	if n := s.RunOnce(context.Background()); n != 0 || len(ref.calls) != 0 {
		t.Fatalf("expected no refresh, got %d (%d calls)", n, len(ref.calls))
	}

	s = New(stubFavorites{err: errors.New("db down")}, ref, time.Minute)
	if n := s.RunOnce(context.Background()); n != 0 || len(ref.calls) != 0 {
		t.Fatalf("expected no refresh on list failure")
	}
}

func TestStartStop(t *testing.T) {
	s := New(stubFavorites{}, &recordingRefresher{}, time.Hour)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
