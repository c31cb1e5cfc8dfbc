package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-companion/internal/weather"
)

// weather: show the forecast for a coordinate, a favorite or the device position.
func weatherCmd() *cobra.Command {
	var (
		lat, lon float64
		favorite string
		here     bool
		refresh  bool
	)
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Show current, hourly and daily weather",
		Long: "Show the forecast for --lat/--lon, for a saved location (--favorite), " +
			"or for the device position (--here, honours the device-location setting).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			coords := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon")

			var (
				data weather.WeatherData
				err  error
			)
			switch {
			case favorite != "":
				data, err = appCtx.FavoriteWeather(ctx, favorite, refresh)
			case here && coords:
				data, err = appCtx.CurrentLocationWeather(ctx, lat, lon)
			case coords:
				data, err = appCtx.WeatherAt(ctx, lat, lon, refresh)
			default:
				return errors.New("give --lat and --lon, or --favorite")
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(cmd, data)
			}
			return writeWeather(cmd.OutOrStdout(), data, appCtx.CurrentSettings())
		},
	}
	coordinateFlags(cmd, &lat, &lon)
	cmd.Flags().StringVar(&favorite, "favorite", "", "ID of a saved location")
	cmd.Flags().BoolVar(&here, "here", false, "treat --lat/--lon as the device position")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the forecast cache")
	cmd.MarkFlagsMutuallyExclusive("favorite", "lat")
	cmd.MarkFlagsMutuallyExclusive("favorite", "here")
	return cmd
}
