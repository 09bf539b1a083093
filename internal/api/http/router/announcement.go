package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/api/http/handler"
	"github.com/educare/track_backend/pkg/authorize"
)

func (r *Router) registerAnnouncementRoutes(api fiber.Router, h *handler.AnnouncementHandler, authRequired fiber.Handler, perm guard) {
	group := api.Group("/announcements", authRequired)
	group.Get("/", perm(authorize.ResourceAnnouncement, authorize.ActionRead), h.List)
	group.Post("/", perm(authorize.ResourceAnnouncement, authorize.ActionCreate), h.Post)
	group.Delete("/:id", perm(authorize.ResourceAnnouncement, authorize.ActionDelete), h.Delete)
}
