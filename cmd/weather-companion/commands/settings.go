package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-companion/internal/settings"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
	}
	cmd.AddCommand(settingsShowCmd(), settingsSetCmd())
	return cmd
}

func settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := appCtx.CurrentSettings()
			if jsonOutput {
				return printJSON(cmd, s)
			}
			return writeSettings(cmd.OutOrStdout(), s)
		},
	}
}

// set key=value...: change preferences; all pairs are applied or none.
func settingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key=value>...",
		Short: "Change preferences (language, units, preset, device-location, hours, days)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := appCtx.UpdateSettings(func(s *settings.State) error {
				for _, arg := range args {
					key, value, ok := strings.Cut(arg, "=")
					if !ok {
						return fmt.Errorf("%w: expected key=value, got %q", settings.ErrInvalid, arg)
					}
					if err := applySetting(s, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, s)
			}
			return writeSettings(cmd.OutOrStdout(), s)
		},
	}
}

func applySetting(s *settings.State, key, value string) error {
	switch key {
	case "language", "lang":
		s.Language = value
	case "units":
		s.Units = value
	case "preset":
		if value == "auto" {
			value = ""
		}
		s.ForcedPreset = value
	case "device-location":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: device-location must be true or false", settings.ErrInvalid)
		}
		s.UseDeviceLocation = b
	case "hours", "days":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", settings.ErrInvalid, key)
		}
		if key == "hours" {
			s.HourlyHours = n
		} else {
			s.ForecastDays = n
		}
	default:
		return fmt.Errorf("%w: unknown setting %q", settings.ErrInvalid, key)
	}
	return nil
}
