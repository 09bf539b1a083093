package app

import (
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/events"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/announcement"
	"github.com/educare/track_backend/internal/service/attendance"
	"github.com/educare/track_backend/internal/service/audit"
	"github.com/educare/track_backend/internal/service/auth"
	"github.com/educare/track_backend/internal/service/calendar"
	"github.com/educare/track_backend/internal/service/clinic"
	"github.com/educare/track_backend/internal/service/excuse"
	"github.com/educare/track_backend/internal/service/notification"
	"github.com/educare/track_backend/internal/service/roster"
	"github.com/educare/track_backend/internal/service/settings"
	"github.com/educare/track_backend/internal/service/student"
	"github.com/educare/track_backend/internal/service/user"
	"github.com/educare/track_backend/pkg/authorize"
	"github.com/educare/track_backend/pkg/crypto"
	"github.com/educare/track_backend/pkg/email"
	"github.com/educare/track_backend/pkg/observability"
	pasetotoken "github.com/educare/track_backend/pkg/paseto"
	s3pkg "github.com/educare/track_backend/pkg/s3"
	"github.com/educare/track_backend/pkg/sms"
	"github.com/educare/track_backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePasetoManager,
		ProvideAuthService,
		ProvideUserService,
		ProvideCalendarService,
		ProvideSettingsService,
		ProvideAttendanceService,
		ProvideClinicService,
		ProvideNotificationService,
		ProvideDeliverer,
		ProvideAuditService,
		ProvideStudentService,
		ProvideExcuseService,
		ProvideAnnouncementService,
		ProvideRosterService,
	),
)

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.FromConfig(cfg.Authentication.Paseto)
}

func ProvideAuthService(store *repo.Store, rdb *redis.Client, tokens *pasetotoken.Manager, hasher *password.Hasher) auth.Service {
	return auth.New(store, auth.NewRedisSessionStore(rdb), tokens, hasher)
}

func ProvideUserService(store *repo.Store, authz authorize.IAuthorization, hasher *password.Hasher, authSvc auth.Service, cfg *config.Config) user.Service {
	return user.New(store, authz, hasher, authSvc, cfg)
}

func ProvideCalendarService(store *repo.Store) calendar.Service {
	return calendar.New(store)
}

func ProvideSettingsService(store *repo.Store, cfg *config.Config) settings.Service {
	return settings.New(store, cfg)
}

func ProvideAttendanceService(
	store *repo.Store,
	cal calendar.Service,
	st settings.Service,
	rdb *redis.Client,
	bus *events.Bus,
	m *observability.Metrics,
	cfg *config.Config,
) (attendance.Service, error) {
	dedupe := attendance.NewRedisDeduper(rdb, attendance.DuplicateWindow(cfg))
	return attendance.New(store, cal, st, dedupe, bus, m, cfg)
}

func ProvideClinicService(store *repo.Store, box *crypto.Box, bus *events.Bus, m *observability.Metrics, cfg *config.Config) (clinic.Service, error) {
	var sealer clinic.Sealer
	if box != nil {
		sealer = box
	}
	return clinic.New(store, sealer, bus, m, cfg)
}

func ProvideNotificationService(store *repo.Store, nc *nats.Conn, bus *events.Bus) notification.Service {
	return notification.New(store, nc, bus)
}

func ProvideDeliverer(store *repo.Store, smsCli *sms.Client, mail *email.Client, m *observability.Metrics, cfg *config.Config) *notification.Deliverer {
	return notification.NewDeliverer(store, smsCli, mail, m, cfg.Observability.ServiceName)
}

func ProvideAuditService(store *repo.Store) audit.Service {
	return audit.New(store)
}

func ProvideStudentService(store *repo.Store, s3 *s3pkg.Client, cfg *config.Config) (student.Service, error) {
	loc, err := calendar.LoadLocation(cfg.School.Timezone)
	if err != nil {
		return nil, err
	}
	var objects student.ObjectStore
	if s3 != nil {
		objects = s3
	}
	return student.New(store, objects, loc), nil
}

func ProvideExcuseService(store *repo.Store, s3 *s3pkg.Client, bus *events.Bus) excuse.Service {
	var objects excuse.ObjectStore
	if s3 != nil {
		objects = s3
	}
	return excuse.New(store, objects, bus)
}

func ProvideAnnouncementService(store *repo.Store, bus *events.Bus) announcement.Service {
	return announcement.New(store, bus)
}

func ProvideRosterService(store *repo.Store, cal calendar.Service) roster.Service {
	return roster.New(store, cal)
}
