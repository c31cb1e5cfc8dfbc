package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/i474232898/weather-companion/internal/settings"
	"github.com/i474232898/weather-companion/internal/weather"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func formatTemp(c float64, imperial bool) string {
	if imperial {
		return fmt.Sprintf("%.1f°F", weather.CelsiusToFahrenheit(c))
	}
	return fmt.Sprintf("%.1f°C", c)
}

func formatWind(ms float64, imperial bool) string {
	if imperial {
		return fmt.Sprintf("%.1f mph", weather.MSToMph(ms))
	}
	return fmt.Sprintf("%.1f m/s", ms)
}

func placeLine(loc weather.LocationData, lang string) string {
	parts := []string{loc.DisplayName(lang)}
	if loc.Region != "" && loc.Region != parts[0] {
		parts = append(parts, loc.Region)
	}
	if loc.Country != "" {
		parts = append(parts, loc.Country)
	}
	return strings.Join(parts, ", ")
}

func writeLocations(w io.Writer, locs []weather.LocationData, lang string, withID bool) error {
	tw := newTable(w)
	if withID {
		fmt.Fprintln(tw, "#\tID\tNAME\tLAT\tLON")
	} else {
		fmt.Fprintln(tw, "#\tNAME\tLAT\tLON")
	}
	for i, l := range locs {
		if withID {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\t%.4f\n", i, l.ID, placeLine(l, lang), l.Latitude, l.Longitude)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4f\n", i, placeLine(l, lang), l.Latitude, l.Longitude)
		}
	}
	return tw.Flush()
}

func writeWeather(w io.Writer, data weather.WeatherData, prefs settings.State) error {
	imperial := prefs.Imperial()
	cur := data.Current

	header := placeLine(data.Location, prefs.Language)
	if data.Timezone != "" {
		header += " (" + data.Timezone + ")"
	}
	if data.Stale {
		header += " [cached " + data.FetchedAt.Local().Format("2006-01-02 15:04") + "]"
	}
	fmt.Fprintln(w, header)
	fmt.Fprintf(w, "Now %s  %s  %s (feels %s)  wind %s %.0f°  humidity %.0f%%\n",
		cur.Time.Format("15:04"), cur.Description,
		formatTemp(cur.TemperatureC, imperial), formatTemp(cur.ApparentTemperatureC, imperial),
		formatWind(cur.WindSpeedMS, imperial), cur.WindDirectionDeg, cur.HumidityPct)
	fmt.Fprintf(w, "Preset: %s\n\n", data.Preset.Name)

	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tEVENT\tTEMP\tPRECIP\tWIND\tICON")
	for _, h := range data.Hourly {
		event := ""
		if h.Kind != weather.KindHour {
			event = string(h.Kind)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%s\t%s\n",
			h.Time.Format("Mon 15:04"), event, formatTemp(h.TemperatureC, imperial),
			h.PrecipitationProbability, formatWind(h.WindSpeedMS, imperial), h.Icon)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	tw = newTable(w)
	fmt.Fprintln(tw, "DATE\tMIN\tMAX\tPRECIP\tSUNRISE\tSUNSET\tCONDITIONS")
	for _, d := range data.Daily {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f mm\t%s\t%s\t%s\n",
			d.Date.Format("Mon 02 Jan"), formatTemp(d.MinTemperatureC, imperial), formatTemp(d.MaxTemperatureC, imperial),
			d.PrecipitationSumMM, clock(d.Sunrise), clock(d.Sunset), d.Description)
	}
	return tw.Flush()
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("15:04")
}

func writeSettings(w io.Writer, s settings.State) error {
	preset := s.ForcedPreset
	if preset == "" {
		preset = "auto"
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "language\t%s\n", s.Language)
	fmt.Fprintf(tw, "units\t%s\n", s.Units)
	fmt.Fprintf(tw, "preset\t%s\n", preset)
	fmt.Fprintf(tw, "device-location\t%t\n", s.UseDeviceLocation)
	fmt.Fprintf(tw, "hours\t%d\n", s.HourlyHours)
	fmt.Fprintf(tw, "days\t%d\n", s.ForecastDays)
	return tw.Flush()
}
