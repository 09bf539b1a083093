package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/api/http/handler"
	"github.com/educare/track_backend/internal/api/http/middleware"
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
	redispkg "github.com/educare/track_backend/pkg/redis"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           *redis.Client
	Auth            authorize.IAuthorization
	AuthSvc         auth.Service
	UserSvc         user.Service
	AttendanceSvc   attendance.Service
	ClinicSvc       clinic.Service
	StudentSvc      student.Service
	ExcuseSvc       excuse.Service
	AnnouncementSvc announcement.Service
	NotificationSvc notification.Service
	CalendarSvc     calendar.Service
	SettingsSvc     settings.Service
	AuditSvc        audit.Service
	RosterSvc       roster.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

// guard builds the permission check for one resource and action.
type guard func(res authorize.Resource, act authorize.Action) fiber.Handler

// Register mounts the health endpoints, the metrics endpoint and every /api/v1 route.
func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	var (
		s      = r.p
		authed = middleware.AuthRequired(s.AuthSvc)
		perm   = guard(func(res authorize.Resource, act authorize.Action) fiber.Handler {
			return middleware.RequirePermission(s.Auth, res, act)
		})
		loc = s.AttendanceSvc.Location()
		api = app.Group("/api/v1")
	)

	userH := handler.NewUserHandler(s.UserSvc)
	r.registerAuthRoutes(api, handler.NewAuthHandler(s.AuthSvc), userH, authed)
	r.registerUserRoutes(api, userH, authed, perm)
	r.registerGateRoutes(api, handler.NewGateHandler(s.AttendanceSvc), authed, perm)
	r.registerClinicRoutes(api, handler.NewClinicHandler(s.ClinicSvc), authed, perm)
	r.registerStudentRoutes(api, handler.NewStudentHandler(s.StudentSvc), authed, perm)
	r.registerExcuseRoutes(api, handler.NewExcuseHandler(s.ExcuseSvc), authed, perm)
	r.registerAnnouncementRoutes(api, handler.NewAnnouncementHandler(s.AnnouncementSvc), authed, perm)
	r.registerNotificationRoutes(api, handler.NewNotificationHandler(s.NotificationSvc), authed)
	r.registerCalendarRoutes(api, handler.NewCalendarHandler(s.CalendarSvc, loc), authed, perm)
	r.registerSettingsRoutes(api, handler.NewSettingsHandler(s.SettingsSvc), authed, perm)
	r.registerAuditRoutes(api, handler.NewAuditHandler(s.AuditSvc, loc), authed, perm)
	r.registerRosterRoutes(api, handler.NewRosterHandler(s.RosterSvc, loc), authed, perm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	ready := healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return authorize.IsPolicyHealthy() && redispkg.Healthy(c.Context(), r.p.Redis)
		},
	})
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, ready)

	if o := r.p.Cfg.Observability; o.Enabled && o.Metrics.Enabled {
		app.Get(o.Metrics.Endpoint(), adaptor.HTTPHandler(promhttp.Handler()))
	}
}
