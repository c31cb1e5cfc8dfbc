package weather

import (
	"context"
	"errors"
	"time"
)

// ErrNotCached is returned by a ForecastCache that holds nothing for a key.
var ErrNotCached = errors.New("forecast not cached")

// RawForecast mirrors the Open-Meteo forecast response requested with
// timeformat=unixtime. It is what gets cached; mapping happens on read so the
// hourly window always starts at the current hour.
type RawForecast struct {
	Latitude             float64    `json:"latitude"`
	Longitude            float64    `json:"longitude"`
	Timezone             string     `json:"timezone"`
	TimezoneAbbreviation string     `json:"timezone_abbreviation"`
	UTCOffsetSeconds     int        `json:"utc_offset_seconds"`
	Current              RawCurrent `json:"current"`
	Hourly               RawHourly  `json:"hourly"`
	Daily                RawDaily   `json:"daily"`
}

type RawCurrent struct {
	Time                int64   `json:"time"`
	Temperature         float64 `json:"temperature_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	RelativeHumidity    float64 `json:"relative_humidity_2m"`
	IsDay               int     `json:"is_day"`
	Precipitation       float64 `json:"precipitation"`
	WeatherCode         int     `json:"weather_code"`
	PressureMSL         float64 `json:"pressure_msl"`
	WindSpeed           float64 `json:"wind_speed_10m"`
	WindDirection       float64 `json:"wind_direction_10m"`
}

type RawHourly struct {
	Time                     []int64   `json:"time"`
	Temperature              []float64 `json:"temperature_2m"`
	PrecipitationProbability []float64 `json:"precipitation_probability"`
	WeatherCode              []int     `json:"weather_code"`
	WindSpeed                []float64 `json:"wind_speed_10m"`
	IsDay                    []int     `json:"is_day"`
}

type RawDaily struct {
	Time                        []int64   `json:"time"`
	WeatherCode                 []int     `json:"weather_code"`
	TemperatureMax              []float64 `json:"temperature_2m_max"`
	TemperatureMin              []float64 `json:"temperature_2m_min"`
	Sunrise                     []int64   `json:"sunrise"`
	Sunset                      []int64   `json:"sunset"`
	PrecipitationSum            []float64 `json:"precipitation_sum"`
	PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
}

// ForecastProvider abstracts the forecast API.
type ForecastProvider interface {
	Name() string
	FetchForecast(ctx context.Context, lat, lon float64, days int) (RawForecast, error)
}

// CachedForecast is one stored provider response.
type CachedForecast struct {
	Key       string      `json:"key"`
	Raw       RawForecast `json:"raw"`
	FetchedAt time.Time   `json:"fetchedAt"`
	// Days is the forecast length asked of the provider.
	Days int `json:"days"`
}

// ForecastCache is the contract the memory and SQL stores satisfy.
type ForecastCache interface {
	SaveForecast(ctx context.Context, entry CachedForecast) error
	LatestForecast(ctx context.Context, key string) (CachedForecast, error)
}
