package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-companion/internal/weather"
)

func favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "List, add, remove and reorder saved locations",
	}
	cmd.AddCommand(favoritesListCmd(), favoritesAddCmd(), favoritesRemoveCmd(), favoritesMoveCmd(), favoritesRefreshCmd())
	return cmd
}

func favoritesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved locations in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := appCtx.ListFavorites(cmdContext(cmd))
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, favs)
			}
			return writeLocations(cmd.OutOrStdout(), favs, appCtx.CurrentSettings().Language, true)
		},
	}
}

// add [place name] | --lat --lon: save the first search hit or a coordinate.
func favoritesAddCmd() *cobra.Command {
	var (
		lat, lon float64
		pick     int
	)
	cmd := &cobra.Command{
		Use:   "add [place name]",
		Short: "Save a place found by name, or the place at --lat/--lon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)

			var loc weather.LocationData
			switch {
			case len(args) > 0:
				hits, err := appCtx.Search(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if pick < 0 || pick >= len(hits) {
					return fmt.Errorf("--pick %d out of range: %d results", pick, len(hits))
				}
				loc = hits[pick]
			case cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon"):
				loc = weather.LocationData{Latitude: lat, Longitude: lon}
			default:
				return errors.New("give a place name or --lat and --lon")
			}

			saved, err := appCtx.AddFavorite(ctx, loc)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, saved)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s as %s\n", placeLine(saved, appCtx.CurrentSettings().Language), saved.ID)
			return nil
		},
	}
	coordinateFlags(cmd, &lat, &lon)
	cmd.Flags().IntVar(&pick, "pick", 0, "index of the search result to save")
	return cmd
}

func favoritesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved location",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.RemoveFavorite(cmdContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed")
			return nil
		},
	}
}

func favoritesMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <position>",
		Short: "Move a saved location to a 0-based position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[1])
			if err != nil || pos < 0 {
				return fmt.Errorf("position must be a non-negative integer, got %q", args[1])
			}
			if err := appCtx.MoveFavorite(cmdContext(cmd), args[0], pos); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "moved")
			return nil
		},
	}
}

func favoritesRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch fresh forecasts for every saved location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.RefreshFavorites(cmdContext(cmd)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "refreshed")
			return nil
		},
	}
}
