package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	companion "github.com/i474232898/weather-companion/internal/app"
)

const serviceName = "weather-companion"

// NewServer builds the Fiber app with middleware, health check and API routes.
func NewServer(a *companion.App) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := a.Ping(c.UserContext()); err != nil {
			slog.Warn("health check failed", "err", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "degraded",
				"service": serviceName,
			})
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	RegisterRoutes(app, a)
	return app
}

// Serve listens on port until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, app *fiber.App, port string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "port", port)
		errCh <- app.Listen(":" + port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "err", err)
		return err
	}
	return nil
}
