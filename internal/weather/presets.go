package weather

import "sort"

// Preset is a named visual theme a client renders behind the forecast.
type Preset struct {
	Name       string `json:"name"`
	Background string `json:"background"`
	Animation  string `json:"animation,omitempty"`
}

const (
	PresetSunny      = "sunny"
	PresetClearNight = "clear_night"
	PresetCloudy     = "cloudy"
	PresetRainy      = "rainy"
	PresetSnowy      = "snowy"
	PresetStormy     = "stormy"
	PresetFoggy      = "foggy"
)

var presets = map[string]Preset{
	PresetSunny:      {Name: PresetSunny, Background: "bg_sunny.webp", Animation: "sun_rays.json"},
	PresetClearNight: {Name: PresetClearNight, Background: "bg_night.webp", Animation: "stars.json"},
	PresetCloudy:     {Name: PresetCloudy, Background: "bg_cloudy.webp", Animation: "clouds.json"},
	PresetRainy:      {Name: PresetRainy, Background: "bg_rain.webp", Animation: "rain.json"},
	PresetSnowy:      {Name: PresetSnowy, Background: "bg_snow.webp", Animation: "snow.json"},
	PresetStormy:     {Name: PresetStormy, Background: "bg_storm.webp", Animation: "lightning.json"},
	PresetFoggy:      {Name: PresetFoggy, Background: "bg_fog.webp"},
}

// LookupPreset returns the preset registered under name.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// Presets lists every preset ordered by name.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SelectPreset returns the forced preset when it names a known one, otherwise
// the preset matching the current conditions.
func SelectPreset(cur CurrentWeather, forced string) Preset {
	if p, ok := presets[forced]; ok {
		return p
	}

	switch cur.Condition {
	case ConditionStorm:
		return presets[PresetStormy]
	case ConditionSnow:
		return presets[PresetSnowy]
	case ConditionRain, ConditionDrizzle:
		return presets[PresetRainy]
	case ConditionFog:
		return presets[PresetFoggy]
	case ConditionCloudy:
		return presets[PresetCloudy]
	}

	if !cur.IsDay {
		return presets[PresetClearNight]
	}
	return presets[PresetSunny]
}
