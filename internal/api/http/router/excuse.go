package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/api/http/handler"
	"github.com/educare/track_backend/pkg/authorize"
)

func (r *Router) registerExcuseRoutes(api fiber.Router, h *handler.ExcuseHandler, authRequired fiber.Handler, perm guard) {
	group := api.Group("/excuses", authRequired)
	group.Get("/", perm(authorize.ResourceExcuseLetter, authorize.ActionRead), h.List)
	group.Post("/", perm(authorize.ResourceExcuseLetter, authorize.ActionCreate), h.Submit)
	group.Get("/:id/attachment", perm(authorize.ResourceExcuseLetter, authorize.ActionRead), h.Attachment)
	group.Post("/:id/decision", perm(authorize.ResourceExcuseLetter, authorize.ActionApprove), h.Decide)
}
