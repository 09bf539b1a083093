package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/api/http/handler"
)

// Notifications are always scoped to the caller, no policy check needed.
func (r *Router) registerNotificationRoutes(api fiber.Router, h *handler.NotificationHandler, authRequired fiber.Handler) {
	group := api.Group("/notifications", authRequired)
	group.Get("/", h.List)
	group.Get("/stream", h.Stream)
	group.Patch("/read-all", h.MarkAllRead)
	group.Patch("/:id/read", h.MarkRead)
}
