package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/api/http/router"
	"github.com/educare/track_backend/internal/app"
)

// Start builds the API, delivery workers and infrastructure and blocks until
// SIGINT or SIGTERM. shutdown bounds how long stop hooks may run.
func Start(cfg *config.Config, shutdown time.Duration) {
	fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: slog.Default().With("component", "fx")}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		Module,
		fx.Invoke(func(*fiber.App) {}),
		fx.StopTimeout(shutdown),
	).Run()
}
