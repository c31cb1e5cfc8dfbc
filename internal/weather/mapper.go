package weather

import (
	"sort"
	"time"
	_ "time/tzdata" // forecast zones are resolved by IANA name on any host
)

const dateKeyLayout = "2006-01-02"

// MapOptions tunes the display model built by MapForecast.
type MapOptions struct {
	// HourlyHours is the number of hour entries starting at the current hour.
	HourlyHours int
	// ForcedPreset overrides the condition based preset when it names a known one.
	ForcedPreset string
	// Language selects the description language, "en" or "fi".
	Language string
	// ForecastDays caps the daily entries; zero keeps all of them.
	ForecastDays int
}

// MapForecast converts a raw provider forecast into the display model. It is a
// pure function of its inputs; now decides where the hourly window starts.
func MapForecast(loc LocationData, raw RawForecast, now time.Time, opts MapOptions) WeatherData {
	zone := ResolveZone(raw.Timezone, raw.TimezoneAbbreviation, raw.UTCOffsetSeconds)

	if loc.Timezone == "" {
		loc.Timezone = raw.Timezone
	}

	current := mapCurrent(raw.Current, zone)
	hours := mapHours(raw.Hourly, zone)
	days := mapDays(raw.Daily, hours, zone)

	current.Description = Describe(current.WeatherCode, opts.Language)
	for i := range days {
		days[i].Description = Describe(days[i].WeatherCode, opts.Language)
	}

	hourly := hourlyWindow(hours, days, now, opts.HourlyHours)
	if opts.ForecastDays > 0 && len(days) > opts.ForecastDays {
		days = days[:opts.ForecastDays]
	}

	return WeatherData{
		Location:         loc,
		Timezone:         raw.Timezone,
		UTCOffsetSeconds: raw.UTCOffsetSeconds,
		Current:          current,
		Hourly:           hourly,
		Daily:            days,
		Preset:           SelectPreset(current, opts.ForcedPreset),
	}
}

// ResolveZone loads the IANA zone by name and falls back to a fixed offset
// zone when the name is empty or unknown.
func ResolveZone(name, abbreviation string, offsetSeconds int) *time.Location {
	if name != "" {
		if zone, err := time.LoadLocation(name); err == nil {
			return zone
		}
	}
	if abbreviation == "" {
		abbreviation = "UTC"
	}
	return time.FixedZone(abbreviation, offsetSeconds)
}

func mapCurrent(c RawCurrent, zone *time.Location) CurrentWeather {
	isDay := c.IsDay == 1
	return CurrentWeather{
		Time:                 unixIn(c.Time, zone),
		TemperatureC:         c.Temperature,
		ApparentTemperatureC: c.ApparentTemperature,
		HumidityPct:          c.RelativeHumidity,
		WindSpeedMS:          c.WindSpeed,
		WindDirectionDeg:     c.WindDirection,
		PrecipitationMM:      c.Precipitation,
		PressureHpa:          c.PressureMSL,
		WeatherCode:          c.WeatherCode,
		Condition:            ConditionFromCode(c.WeatherCode),
		Icon:                 IconFor(c.WeatherCode, isDay),
		IsDay:                isDay,
	}
}

// mapHours converts every hourly sample. Arrays of different lengths are
// truncated to the required ones; optional series default to zero.
func mapHours(h RawHourly, zone *time.Location) []HourlyWeather {
	n := minLen(len(h.Time), len(h.Temperature), len(h.WeatherCode))
	hours := make([]HourlyWeather, 0, n)
	for i := 0; i < n; i++ {
		isDay := intAt(h.IsDay, i, 1) == 1
		code := h.WeatherCode[i]
		hours = append(hours, HourlyWeather{
			Time:                     unixIn(h.Time[i], zone),
			Kind:                     KindHour,
			TemperatureC:             h.Temperature[i],
			PrecipitationProbability: floatAt(h.PrecipitationProbability, i),
			WindSpeedMS:              floatAt(h.WindSpeed, i),
			WeatherCode:              code,
			Icon:                     IconFor(code, isDay),
			IsDay:                    isDay,
		})
	}
	sort.SliceStable(hours, func(i, j int) bool { return hours[i].Time.Before(hours[j].Time) })
	return hours
}

// mapDays groups the hour entries by local calendar day and joins them with
// the provider's daily block.
func mapDays(d RawDaily, hours []HourlyWeather, zone *time.Location) []DailyWeather {
	byDay := make(map[string][]HourlyWeather)
	for _, h := range hours {
		k := h.Time.Format(dateKeyLayout)
		byDay[k] = append(byDay[k], h)
	}

	dailyIdx := make(map[string]int)
	for i, ts := range d.Time {
		dailyIdx[unixIn(ts, zone).Format(dateKeyLayout)] = i
	}

	keys := make([]string, 0, len(byDay)+len(dailyIdx))
	for k := range byDay {
		keys = append(keys, k)
	}
	for k := range dailyIdx {
		if _, ok := byDay[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	days := make([]DailyWeather, 0, len(keys))
	for _, k := range keys {
		date, err := time.ParseInLocation(dateKeyLayout, k, zone)
		if err != nil {
			continue
		}

		dayHours := byDay[k]
		day := DailyWeather{Date: date, Hours: dayHours}

		i, hasDaily := dailyIdx[k]
		if hasDaily {
			day.PrecipitationSumMM = floatAt(d.PrecipitationSum, i)
			day.PrecipitationProbabilityMax = floatAt(d.PrecipitationProbabilityMax, i)
			day.Sunrise = unixIn(int64At(d.Sunrise, i), zone)
			day.Sunset = unixIn(int64At(d.Sunset, i), zone)
		}

		if hasDaily && i < len(d.TemperatureMin) && i < len(d.TemperatureMax) {
			day.MinTemperatureC = d.TemperatureMin[i]
			day.MaxTemperatureC = d.TemperatureMax[i]
		} else if lo, hi, ok := temperatureRange(dayHours); ok {
			day.MinTemperatureC = lo
			day.MaxTemperatureC = hi
		}

		code, ok := DominantCode(dayHours)
		if !ok && hasDaily {
			code = intAt(d.WeatherCode, i, 0)
		}
		day.WeatherCode = code
		day.Condition = ConditionFromCode(code)
		day.Icon = IconFor(code, true)

		days = append(days, day)
	}
	return days
}

// hourlyWindow returns count hour entries starting with the hour that contains
// now, with the days' sunrise and sunset merged in where they fall inside it.
func hourlyWindow(hours []HourlyWeather, days []DailyWeather, now time.Time, count int) []HourlyWeather {
	if len(hours) == 0 || count <= 0 {
		return []HourlyWeather{}
	}

	start := sort.Search(len(hours), func(i int) bool {
		return hours[i].Time.Add(time.Hour).After(now)
	})
	if start == len(hours) {
		return []HourlyWeather{}
	}
	end := start + count
	if end > len(hours) {
		end = len(hours)
	}

	window := make([]HourlyWeather, 0, end-start+2)
	window = append(window, hours[start:end]...)

	from := window[0].Time
	until := window[len(window)-1].Time.Add(time.Hour)
	for _, d := range days {
		if ev, ok := sunEvent(window, KindSunrise, d.Sunrise, from, until); ok {
			window = append(window, ev)
		}
		if ev, ok := sunEvent(window, KindSunset, d.Sunset, from, until); ok {
			window = append(window, ev)
		}
	}

	sort.SliceStable(window, func(i, j int) bool { return window[i].Time.Before(window[j].Time) })
	return window
}

// sunEvent synthesizes a sunrise or sunset entry carrying the values of the
// hour it falls in.
func sunEvent(window []HourlyWeather, kind HourlyKind, at, from, until time.Time) (HourlyWeather, bool) {
	if at.IsZero() || at.Before(from) || !at.Before(until) {
		return HourlyWeather{}, false
	}

	ev := HourlyWeather{
		Time:  at,
		Kind:  kind,
		Icon:  string(kind),
		IsDay: kind == KindSunrise,
	}
	for _, h := range window {
		if h.Kind != KindHour {
			continue
		}
		if !h.Time.After(at) && at.Before(h.Time.Add(time.Hour)) {
			ev.TemperatureC = h.TemperatureC
			ev.PrecipitationProbability = h.PrecipitationProbability
			ev.WindSpeedMS = h.WindSpeedMS
			ev.WeatherCode = h.WeatherCode
			break
		}
	}
	return ev, true
}

func unixIn(sec int64, zone *time.Location) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).In(zone)
}

func minLen(lens ...int) int {
	m := lens[0]
	for _, l := range lens[1:] {
		if l < m {
			m = l
		}
	}
	return m
}

func floatAt(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func intAt(s []int, i, def int) int {
	if i < len(s) {
		return s[i]
	}
	return def
}

func int64At(s []int64, i int) int64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}
