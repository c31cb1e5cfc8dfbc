package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-companion/internal/api/http"
	"github.com/i474232898/weather-companion/internal/scheduler"
)

// serve: run the HTTP API until interrupted.
func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background refresh scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = cfg.Port
			}

			// Scheduler that keeps cached weather for favorites fresh.
			sched := scheduler.New(appCtx, appCtx, cfg.RefreshInterval)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			// Wait for termination signal
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return httpapi.Serve(ctx, httpapi.NewServer(appCtx), port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default $PORT or 8080)")
	return cmd
}
