package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/api/http/handler"
	"github.com/educare/track_backend/pkg/authorize"
)

func (r *Router) registerSettingsRoutes(api fiber.Router, h *handler.SettingsHandler, authRequired fiber.Handler, perm guard) {
	group := api.Group("/settings")
	// branding is shown on the login screen
	group.Get("/branding", h.Branding)
	group.Put("/branding", authRequired, perm(authorize.ResourceSettings, authorize.ActionUpdate), h.UpdateBranding)
	group.Get("/tap-times", authRequired, h.TapTimes)
	group.Put("/tap-times", authRequired, perm(authorize.ResourceSettings, authorize.ActionUpdate), h.UpdateTapTimes)
}

func (r *Router) registerAuditRoutes(api fiber.Router, h *handler.AuditHandler, authRequired fiber.Handler, perm guard) {
	api.Get("/audit", authRequired, perm(authorize.ResourceAudit, authorize.ActionRead), h.List)
}
