package weather

// DominantCode picks the weather code that best represents a day. Daytime
// hours vote; when there are none every hour votes. The most frequent code
// wins and ties go to the higher, more severe code.
func DominantCode(hours []HourlyWeather) (int, bool) {
	if len(hours) == 0 {
		return 0, false
	}

	counts := make(map[int]int)
	for _, h := range hours {
		if h.Kind == KindHour && h.IsDay {
			counts[h.WeatherCode]++
		}
	}
	if len(counts) == 0 {
		for _, h := range hours {
			if h.Kind == KindHour {
				counts[h.WeatherCode]++
			}
		}
	}
	if len(counts) == 0 {
		return 0, false
	}

	bestCode := 0
	bestCount := 0
	for code, count := range counts {
		if count > bestCount || (count == bestCount && code > bestCode) {
			bestCount = count
			bestCode = code
		}
	}
	return bestCode, true
}

// temperatureRange returns the min and max temperature of the hour entries.
func temperatureRange(hours []HourlyWeather) (lo, hi float64, ok bool) {
	for _, h := range hours {
		if h.Kind != KindHour {
			continue
		}
		if !ok {
			lo, hi, ok = h.TemperatureC, h.TemperatureC, true
			continue
		}
		if h.TemperatureC < lo {
			lo = h.TemperatureC
		}
		if h.TemperatureC > hi {
			hi = h.TemperatureC
		}
	}
	return lo, hi, ok
}
