package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/api/http/middleware"
	"github.com/educare/track_backend/internal/api/http/router"
	"github.com/educare/track_backend/pkg/observability"
)

const (
	defaultBodyLimitMB = 12
	defaultReadTimeout = 30 * time.Second
	idleTimeout        = 2 * time.Minute
)

// Module provides the HTTP Server to the fx graph.
var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Redis     *redis.Client
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	srv := p.Cfg.Server
	bodyMB := srv.BodyLimitMB
	if bodyMB <= 0 {
		bodyMB = defaultBodyLimitMB
	}
	read := defaultReadTimeout
	if srv.TimeoutSeconds > 0 {
		read = time.Duration(srv.TimeoutSeconds) * time.Second
	}

	// WriteTimeout stays zero: the notification stream holds its response
	// open far longer than any request.
	app := fiber.New(fiber.Config{
		AppName:      "educare-track",
		BodyLimit:    bodyMB << 20,
		ReadTimeout:  read,
		IdleTimeout:  idleTimeout,
		ErrorHandler: errorHandler,
	})

	if p.OTel != nil {
		app.Use(observability.HTTPMiddleware(p.Cfg.Observability.ServiceName,
			p.Cfg.Observability.Metrics.Endpoint(), "/livez", "/readyz", "/startupz"))
	}
	useGlobalMiddleware(app, p.Cfg, p.Redis)
	p.Router.Register(app)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			addr := fmt.Sprintf(":%d", srv.Port)
			go func() {
				if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					slog.Error("http listener stopped", "addr", addr, "err", err)
				}
			}()
			slog.Info("http listening", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
	return app
}

func useGlobalMiddleware(app *fiber.App, cfg *config.Config, rdb *redis.Client) {
	app.Use(middleware.RequestID())
	app.Use(recoverer.New(recoverer.Config{EnableStackTrace: cfg.Server.Environment != "production"}))

	if cfg.Server.Environment == "production" {
		app.Use(helmet.New())
	}
	if c := cfg.Server.CORS; c.Enabled {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     c.AllowOrigins,
			AllowMethods:     c.AllowMethods,
			AllowHeaders:     c.AllowHeaders,
			AllowCredentials: c.AllowCredentials,
			ExposeHeaders:    []string{middleware.HeaderRequestID},
			MaxAge:           c.MaxAgeSeconds,
		}))
	}
	if cfg.Server.Environment == "production" {
		app.Use(middleware.NewLimiterWithRedis(rdb, cfg.Server.RateLimit))
	}

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${respHeader:X-Request-Id}] ${method} ${path} ${status} ${latency}\n",
	}))
}

// errorHandler keeps framework errors (404s, body limit, panics) in the
// same {"error": ...} envelope the handlers use.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, msg = fe.Code, fe.Message
	} else {
		slog.ErrorContext(c.Context(), "unhandled error", "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
