package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/api/http/handler"
	"github.com/educare/track_backend/pkg/authorize"
)

func (r *Router) registerCalendarRoutes(api fiber.Router, h *handler.CalendarHandler, authRequired fiber.Handler, perm guard) {
	group := api.Group("/calendar", authRequired)
	group.Get("/", perm(authorize.ResourceCalendar, authorize.ActionRead), h.List)
	group.Get("/check", perm(authorize.ResourceCalendar, authorize.ActionRead), h.Check)
	group.Post("/", perm(authorize.ResourceCalendar, authorize.ActionCreate), h.Create)
	group.Put("/:id", perm(authorize.ResourceCalendar, authorize.ActionUpdate), h.Update)
	group.Delete("/:id", perm(authorize.ResourceCalendar, authorize.ActionDelete), h.Delete)
}
