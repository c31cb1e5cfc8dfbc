// Package settings persists user preferences in a TOML file.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-companion/internal/weather"
)

const (
	LanguageEnglish = "en"
	LanguageFinnish = "fi"

	UnitsMetric   = "metric"
	UnitsImperial = "imperial"

	schemaVersion = 1
)

var (
	// ErrInvalid is returned when an update leaves the settings out of range.
	ErrInvalid = errors.New("invalid settings")
	// ErrUnknownPreset is returned when the forced preset names no known preset.
	ErrUnknownPreset = errors.New("unknown weather preset")
)

var validate = validator.New()

// State is the full set of user preferences.
type State struct {
	SchemaVersion     int    `toml:"schema_version" json:"-"`
	Language          string `toml:"language" json:"language" validate:"oneof=en fi"`
	Units             string `toml:"units" json:"units" validate:"oneof=metric imperial"`
	ForcedPreset      string `toml:"forced_preset" json:"forcedPreset"`
	UseDeviceLocation bool   `toml:"use_device_location" json:"useDeviceLocation"`
	HourlyHours       int    `toml:"hourly_hours" json:"hourlyHours" validate:"min=1,max=48"`
	ForecastDays      int    `toml:"forecast_days" json:"forecastDays" validate:"min=1,max=16"`
}

// Default returns the settings used before the user changes anything.
func Default() State {
	return State{
		SchemaVersion:     schemaVersion,
		Language:          LanguageEnglish,
		Units:             UnitsMetric,
		UseDeviceLocation: true,
		HourlyHours:       weather.DefaultHourlyHours,
		ForecastDays:      weather.DefaultForecastDays,
	}
}

// Imperial reports whether values should be shown in imperial units.
func (s State) Imperial() bool {
	return s.Units == UnitsImperial
}

// Validate normalizes the language and checks every field.
func (s *State) Validate() error {
	if s.Language != "" {
		lang, err := NormalizeLanguage(s.Language)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		s.Language = lang
	}
	s.Units = strings.ToLower(strings.TrimSpace(s.Units))
	s.ForcedPreset = strings.TrimSpace(s.ForcedPreset)

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if s.ForcedPreset != "" {
		if _, ok := weather.LookupPreset(s.ForcedPreset); !ok {
			return fmt.Errorf("%w: %w %q", ErrInvalid, ErrUnknownPreset, s.ForcedPreset)
		}
	}
	return nil
}

var supported = []language.Tag{language.English, language.Finnish}

// NormalizeLanguage reduces a BCP 47 tag such as "fi-FI" to "en" or "fi".
// Tags for any other language are rejected.
func NormalizeLanguage(tag string) (string, error) {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return "", fmt.Errorf("language %q: %w", tag, err)
	}
	base, _ := t.Base()
	switch base.String() {
	case LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageFinnish:
		return LanguageFinnish, nil
	}
	return "", fmt.Errorf("unsupported language %q", tag)
}

var matcher = language.NewMatcher(supported)

// MatchAcceptLanguage picks en or fi from an Accept-Language header, or
// returns fallback when the header prefers neither.
func MatchAcceptLanguage(header, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	if idx == 1 {
		return LanguageFinnish
	}
	return LanguageEnglish
}

// Store keeps the current settings in memory and in a TOML file.
type Store struct {
	mu    sync.RWMutex
	path  string
	state State
}

// Open loads the settings file at path. A missing file yields the defaults.
func Open(path string) (*Store, error) {
	s := &Store{path: filepath.Clean(path), state: Default()}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("settings file not found, using defaults", "path", s.path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	state := Default()
	if err := toml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", s.path, err)
	}
	if err := state.Validate(); err != nil {
		slog.Warn("settings file is invalid, using defaults", "path", s.path, "err", err)
		return s, nil
	}
	state.SchemaVersion = schemaVersion
	s.state = state
	return s, nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Update applies fn to a copy of the settings, validates the result and
// saves it. The stored settings are left untouched when anything fails.
func (s *Store) Update(fn func(*State) error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	if err := fn(&next); err != nil {
		return s.state, err
	}
	if err := next.Validate(); err != nil {
		return s.state, err
	}
	next.SchemaVersion = schemaVersion

	if err := s.write(next); err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}

func (s *Store) write(state State) error {
	data, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
