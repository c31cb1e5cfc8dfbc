package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-companion/internal/weather"
)

// search <query>: look a place up by name.
func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <place name>",
		Short: "Look a place up by name in English and Finnish",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locs, err := appCtx.Search(cmdContext(cmd), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, locs)
			}
			return writeLocations(cmd.OutOrStdout(), locs, appCtx.CurrentSettings().Language, false)
		},
	}
}

// reverse --lat --lon: name the place at a coordinate.
func reverseCmd() *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "reverse --lat <lat> --lon <lon>",
		Short: "Name the place at a coordinate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := appCtx.Reverse(cmdContext(cmd), lat, lon)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, loc)
			}
			return writeLocations(cmd.OutOrStdout(), []weather.LocationData{loc}, appCtx.CurrentSettings().Language, false)
		},
	}
	coordinateFlags(cmd, &lat, &lon)
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func coordinateFlags(cmd *cobra.Command, lat, lon *float64) {
	cmd.Flags().Float64Var(lat, "lat", 0, "latitude in decimal degrees")
	cmd.Flags().Float64Var(lon, "lon", 0, "longitude in decimal degrees")
}
