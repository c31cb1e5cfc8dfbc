package weather

// ConditionFromCode maps a WMO weather interpretation code, as used by
// Open-Meteo, to a normalized condition.
func ConditionFromCode(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code == 1 || code == 2:
		return ConditionPartlyCloudy
	case code == 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionFog
	case code >= 51 && code <= 57:
		return ConditionDrizzle
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95 && code <= 99:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}

// IconFor returns the icon name for a code. Only clear and partly cloudy
// skies have separate day and night artwork.
func IconFor(code int, isDay bool) string {
	cond := ConditionFromCode(code)
	switch cond {
	case ConditionClear, ConditionPartlyCloudy:
		if isDay {
			return string(cond) + "_day"
		}
		return string(cond) + "_night"
	default:
		return string(cond)
	}
}

// Describe returns a short human readable description of a code.
func Describe(code int, lang string) string {
	names, ok := descriptions[ConditionFromCode(code)]
	if !ok {
		names = descriptions[ConditionUnknown]
	}
	if lang == "fi" {
		return names[1]
	}
	return names[0]
}

var descriptions = map[Condition][2]string{
	ConditionClear:        {"Clear", "Selkeää"},
	ConditionPartlyCloudy: {"Partly cloudy", "Puolipilvistä"},
	ConditionCloudy:       {"Cloudy", "Pilvistä"},
	ConditionFog:          {"Fog", "Sumua"},
	ConditionDrizzle:      {"Drizzle", "Tihkusadetta"},
	ConditionRain:         {"Rain", "Sadetta"},
	ConditionSnow:         {"Snow", "Lumisadetta"},
	ConditionStorm:        {"Thunderstorm", "Ukkosta"},
	ConditionUnknown:      {"Unknown", "Tuntematon"},
}

// CelsiusToFahrenheit converts a temperature for imperial display.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// MSToMph converts a wind speed for imperial display.
func MSToMph(ms float64) float64 {
	return ms * 2.23694
}
