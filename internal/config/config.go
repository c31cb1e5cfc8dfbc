package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-companion/internal/logging"
	"github.com/i474232898/weather-companion/internal/store"
	"github.com/i474232898/weather-companion/internal/weather/providers"
)

type AppConfig struct {
	Port        string
	HTTPTimeout time.Duration

	// Database holding favorites and the forecast cache.
	DBDriver string
	DBDSN    string

	SettingsPath string

	// RefreshInterval controls how often cached weather for favorites is renewed.
	RefreshInterval time.Duration

	// Forecast cache retention.
	CacheMaxAge     time.Duration // forecasts younger than this are served without refetching
	CacheMaxHistory int           // forecasts kept in memory per location (0 = unlimited)

	ForecastBaseURL  string
	GeocodingBaseURL string
	NominatimBaseURL string

	// GoogleGeocoderAPIKey enables Google as the primary reverse geocoder.
	GoogleGeocoderAPIKey string
	UserAgent            string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.DBDriver = strings.ToLower(getenvDefault("DB_DRIVER", store.DriverSQLite))
	if cfg.DBDriver != store.DriverSQLite && cfg.DBDriver != store.DriverPostgres {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: use %s or %s", cfg.DBDriver, store.DriverSQLite, store.DriverPostgres)
	}
	cfg.DBDSN = getenvDefault("DB_DSN", "file:weather.db")
	cfg.SettingsPath = getenvDefault("SETTINGS_PATH", "settings.toml")

	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "30m"); err != nil {
		return nil, err
	}
	if cfg.CacheMaxAge, err = getenvDuration("CACHE_MAX_AGE", "1h"); err != nil {
		return nil, err
	}
	if cfg.CacheMaxHistory, err = getenvInt("CACHE_MAX_HISTORY", 4); err != nil {
		return nil, err
	}

	cfg.ForecastBaseURL = getenvDefault("FORECAST_BASE_URL", providers.DefaultOpenMeteoURL)
	cfg.GeocodingBaseURL = getenvDefault("GEOCODING_BASE_URL", providers.DefaultOpenMeteoGeocodingURL)
	cfg.NominatimBaseURL = getenvDefault("NOMINATIM_BASE_URL", providers.DefaultNominatimURL)
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")
	cfg.UserAgent = getenvDefault("USER_AGENT", "weather-companion/1.0")

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", logging.FormatText))
	if cfg.LogFormat != logging.FormatText && cfg.LogFormat != logging.FormatJSON {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}

// ClientConfig returns the outbound client settings for baseURL.
func (c *AppConfig) ClientConfig(baseURL string) providers.ClientConfig {
	return providers.ClientConfig{
		BaseURL:   baseURL,
		UserAgent: c.UserAgent,
		Timeout:   c.HTTPTimeout,
		Backoff:   providers.DefaultBackoff,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s: %d is negative", key, n)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
