package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/api/http/handler"
	"github.com/educare/track_backend/internal/api/http/middleware"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/pkg/authorize"
)

func (r *Router) registerRosterRoutes(api fiber.Router, h *handler.RosterHandler, authRequired fiber.Handler, perm guard) {
	readSchedule := perm(authorize.ResourceSchedule, authorize.ActionRead)
	manageSchedule := perm(authorize.ResourceSchedule, authorize.ActionManage)

	subjects := api.Group("/subjects", authRequired)
	subjects.Get("/", readSchedule, h.ListSubjects)
	subjects.Put("/:code", manageSchedule, h.UpsertSubject)

	api.Put("/classes/:id/schedules", authRequired, manageSchedule, h.ReplaceSchedules)

	schedules := api.Group("/schedules", authRequired)
	schedules.Get("/", readSchedule, h.ListSchedules)
	schedules.Get("/:id/sheet", perm(authorize.ResourceSubjectAttendance, authorize.ActionRead), h.Sheet)
	schedules.Put("/:id/marks", perm(authorize.ResourceSubjectAttendance, authorize.ActionCreate), h.Mark)
	schedules.Post("/:id/validate", perm(authorize.ResourceSubjectAttendance, authorize.ActionApprove), h.Validate)

	api.Get("/homeroom", authRequired, middleware.RequireRole(repo.RoleTeacher), readSchedule, h.Homeroom)
}
