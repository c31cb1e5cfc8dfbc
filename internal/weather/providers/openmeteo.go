package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/weather-companion/internal/weather"
)

const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1"

var (
	openMeteoCurrent = []string{
		"temperature_2m", "apparent_temperature", "relative_humidity_2m", "is_day",
		"precipitation", "weather_code", "pressure_msl", "wind_speed_10m", "wind_direction_10m",
	}
	openMeteoHourly = []string{
		"temperature_2m", "precipitation_probability", "weather_code", "wind_speed_10m", "is_day",
	}
	openMeteoDaily = []string{
		"weather_code", "temperature_2m_max", "temperature_2m_min", "sunrise", "sunset",
		"precipitation_sum", "precipitation_probability_max",
	}
)

// OpenMeteoProvider implements weather.ForecastProvider for Open-Meteo.
type OpenMeteoProvider struct {
	fetch *fetcher
}

func NewOpenMeteoProvider(cfg ClientConfig) *OpenMeteoProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoProvider{fetch: newFetcher("openmeteo", cfg)}
}

func (p *OpenMeteoProvider) Name() string {
	return p.fetch.name
}

// FetchForecast requests current, hourly and daily data in the location's own
// time zone with unix timestamps and metric units.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, lat, lon float64, days int) (weather.RawForecast, error) {
	if days <= 0 || days > 16 {
		return weather.RawForecast{}, fmt.Errorf("openmeteo supports 1-16 forecast days, got %d", days)
	}

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	values.Set("timezone", "auto")
	values.Set("timeformat", "unixtime")
	values.Set("wind_speed_unit", "ms")
	values.Set("forecast_days", strconv.Itoa(days))
	values.Set("current", strings.Join(openMeteoCurrent, ","))
	values.Set("hourly", strings.Join(openMeteoHourly, ","))
	values.Set("daily", strings.Join(openMeteoDaily, ","))

	var raw weather.RawForecast
	if err := p.fetch.getJSON(ctx, "/forecast", values, &raw); err != nil {
		return weather.RawForecast{}, err
	}
	return raw, nil
}
