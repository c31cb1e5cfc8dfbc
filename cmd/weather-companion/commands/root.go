package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-companion/internal/app"
	"github.com/i474232898/weather-companion/internal/config"
	"github.com/i474232898/weather-companion/internal/logging"
)

var (
	cfg    *config.AppConfig
	appCtx *app.App

	jsonOutput bool
	logLevel   string
)

func Execute() error {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "weather-companion",
		Short:         "Weather forecasts for saved and nearby places",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
				return err
			}

			appCtx, err = app.Open(cmdContext(cmd), cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx == nil {
				return nil
			}
			err := appCtx.Close()
			appCtx = nil
			return err
		},
	}

	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(serveCmd(), searchCmd(), reverseCmd(), weatherCmd(), favoritesCmd(), settingsCmd())
	return root
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
