package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/events"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/pkg/authorize"
	"github.com/educare/track_backend/pkg/crypto"
	"github.com/educare/track_backend/pkg/database"
	"github.com/educare/track_backend/pkg/email"
	"github.com/educare/track_backend/pkg/observability"
	redispkg "github.com/educare/track_backend/pkg/redis"
	s3pkg "github.com/educare/track_backend/pkg/s3"
	"github.com/educare/track_backend/pkg/sms"
	"github.com/educare/track_backend/pkg/util/password"
)

// InfraModule provides connections, clients and crypto helpers. Optional
// backends (S3, NATS, telemetry, note key) resolve to nil when unconfigured.
var InfraModule = fx.Module("infra",
	fx.Provide(
		ProvidePool,
		ProvideStore,
		ProvideRedis,
		ProvideAuthorization,
		ProvideEmailClient,
		ProvideSMSClient,
		ProvideOTel,
		ProvideMetrics,
		ProvideS3Client,
		ProvideNatsClient,
		ProvideBus,
		ProvideNoteBox,
		ProvideHasher,
	),
)

// onStop runs fn when the app stops and logs what is being released.
func onStop(lc fx.Lifecycle, what string, fn func(context.Context) error) {
	lc.Append(fx.StopHook(func(ctx context.Context) error {
		slog.DebugContext(ctx, "releasing "+what)
		return fn(ctx)
	}))
}

const connectTimeout = 15 * time.Second

func ProvidePool(lc fx.Lifecycle, cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if cfg.Database.Migrations.AutoMigrate {
		if err := database.Migrate(ctx, cfg.Database); err != nil {
			return nil, err
		}
	}
	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	onStop(lc, "database pool", func(context.Context) error {
		pool.Close()
		return nil
	})
	return pool, nil
}

func ProvideStore(pool *pgxpool.Pool) *repo.Store {
	return repo.New(pool)
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	rdb, err := redispkg.Open(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	onStop(lc, "redis client", func(context.Context) error { return rdb.Close() })
	return rdb, nil
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	dsn := database.NewDSN(cfg.CasbinDatabase)
	enforcer, cleanup, err := authorize.NewEnforcer(cfg.Authorization.CasbinModelPath, dsn)
	if err != nil {
		return nil, err
	}
	auth, err := authorize.NewAuthorization(enforcer)
	if err != nil {
		cleanup(context.Background())
		return nil, err
	}
	if cfg.Authorization.EnableAudit {
		auth = authorize.NewAuditedAuthorization(auth, slog.Default())
	}
	onStop(lc, "casbin enforcer", func(ctx context.Context) error {
		cleanup(ctx)
		return nil
	})
	return auth, nil
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.New(cfg.Email), nil
}

func ProvideSMSClient(cfg *config.Config) (*sms.Client, error) {
	return sms.New(cfg.SMS)
}

// ProvideS3Client returns nil when no bucket is configured; photo and
// attachment uploads then answer 503.
func ProvideS3Client(cfg *config.Config) (*s3pkg.Client, error) {
	if cfg.S3.Bucket == "" {
		slog.Warn("s3 bucket not configured, uploads are disabled")
		return nil, nil
	}
	return s3pkg.New(cfg.S3)
}

// ProvideNatsClient returns nil when no URL is configured. Notifications are
// then stored but not pushed.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		slog.Warn("nats url not configured, realtime notifications are disabled")
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name("educare-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	onStop(lc, "nats connection", func(context.Context) error { return nc.Drain() })
	return nc, nil
}

func ProvideBus(nc *nats.Conn, cfg *config.Config, m *observability.Metrics) *events.Bus {
	if nc == nil {
		return events.NewBus(nil, cfg.Nats.SubjectPrefix, m)
	}
	return events.NewNatsBus(nc, cfg.Nats.SubjectPrefix, m)
}

// ProvideNoteBox returns nil when no encryption key is set.
func ProvideNoteBox(cfg *config.Config) (*crypto.Box, error) {
	if cfg.Authentication.EncryptionKey == "" {
		return nil, nil
	}
	return crypto.NewBox(cfg.Authentication.EncryptionKey)
}

func ProvideHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.FromCentralConfig(cfg.Password))
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.Start(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("telemetry started", "tracing", cfg.Observability.Tracing.Enabled)
	onStop(lc, "telemetry providers", provider.Shutdown)
	return provider, nil
}

// ProvideMetrics depends on the provider so instruments bind to the real
// meter provider when telemetry is enabled.
func ProvideMetrics(_ *observability.Provider) (*observability.Metrics, error) {
	return observability.NewMetrics()
}
