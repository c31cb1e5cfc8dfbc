package weather

import (
	"fmt"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown      Condition = "unknown"
	ConditionClear        Condition = "clear"
	ConditionPartlyCloudy Condition = "partly_cloudy"
	ConditionCloudy       Condition = "cloudy"
	ConditionFog          Condition = "fog"
	ConditionDrizzle      Condition = "drizzle"
	ConditionRain         Condition = "rain"
	ConditionSnow         Condition = "snow"
	ConditionStorm        Condition = "thunderstorm"
)

// LocationData is a place the user looks weather up for. ID is only set once the
// location has been saved as a favorite.
type LocationData struct {
	ID          string  `json:"id,omitempty"`
	NameEN      string  `json:"nameEn"`
	NameFI      string  `json:"nameFi"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"countryCode,omitempty"`
	Region      string  `json:"region,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone,omitempty"`
}

// Key returns a canonical key for the location's coordinates, roughly 100 m precision.
func (l LocationData) Key() string {
	return fmt.Sprintf("%.3f,%.3f", l.Latitude, l.Longitude)
}

// DisplayName returns the name in the requested language, falling back to English.
func (l LocationData) DisplayName(lang string) string {
	if lang == "fi" && l.NameFI != "" {
		return l.NameFI
	}
	if l.NameEN != "" {
		return l.NameEN
	}
	if l.NameFI != "" {
		return l.NameFI
	}
	return fmt.Sprintf("%.4f, %.4f", l.Latitude, l.Longitude)
}

// WeatherData is the display model built from one forecast response.
type WeatherData struct {
	Location         LocationData    `json:"location"`
	Timezone         string          `json:"timezone"`
	UTCOffsetSeconds int             `json:"utcOffsetSeconds"`
	FetchedAt        time.Time       `json:"fetchedAt"`
	Stale            bool            `json:"stale,omitempty"`
	Current          CurrentWeather  `json:"current"`
	Hourly           []HourlyWeather `json:"hourly"`
	Daily            []DailyWeather  `json:"daily"`
	Preset           Preset          `json:"preset"`
}

type CurrentWeather struct {
	Time                 time.Time `json:"time"`
	TemperatureC         float64   `json:"temperatureC"`
	ApparentTemperatureC float64   `json:"apparentTemperatureC"`
	HumidityPct          float64   `json:"humidityPercent"`
	WindSpeedMS          float64   `json:"windSpeedMs"`
	WindDirectionDeg     float64   `json:"windDirectionDeg"`
	PrecipitationMM      float64   `json:"precipitationMm"`
	PressureHpa          float64   `json:"pressureHpa"`
	WeatherCode          int       `json:"weatherCode"`
	Condition            Condition `json:"condition"`
	Description          string    `json:"description"`
	Icon                 string    `json:"icon"`
	IsDay                bool      `json:"isDay"`
}

// HourlyKind tells regular hour entries apart from synthesized sun events.
type HourlyKind string

const (
	KindHour    HourlyKind = "hour"
	KindSunrise HourlyKind = "sunrise"
	KindSunset  HourlyKind = "sunset"
)

type HourlyWeather struct {
	Time                     time.Time  `json:"time"`
	Kind                     HourlyKind `json:"kind"`
	TemperatureC             float64    `json:"temperatureC"`
	PrecipitationProbability float64    `json:"precipitationProbability"`
	WindSpeedMS              float64    `json:"windSpeedMs"`
	WeatherCode              int        `json:"weatherCode"`
	Icon                     string     `json:"icon"`
	IsDay                    bool       `json:"isDay"`
}

type DailyWeather struct {
	Date                        time.Time       `json:"date"`
	MinTemperatureC             float64         `json:"minTemperatureC"`
	MaxTemperatureC             float64         `json:"maxTemperatureC"`
	PrecipitationSumMM          float64         `json:"precipitationSumMm"`
	PrecipitationProbabilityMax float64         `json:"precipitationProbabilityMax"`
	Sunrise                     time.Time       `json:"sunrise,omitempty"`
	Sunset                      time.Time       `json:"sunset,omitempty"`
	WeatherCode                 int             `json:"weatherCode"`
	Condition                   Condition       `json:"condition"`
	Description                 string          `json:"description"`
	Icon                        string          `json:"icon"`
	Hours                       []HourlyWeather `json:"hours,omitempty"`
}
