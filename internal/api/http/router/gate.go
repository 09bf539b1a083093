package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/api/http/handler"
	"github.com/educare/track_backend/pkg/authorize"
)

func (r *Router) registerGateRoutes(api fiber.Router, h *handler.GateHandler, authRequired fiber.Handler, perm guard) {
	gate := api.Group("/gate", authRequired, perm(authorize.ResourceGateTap, authorize.ActionCreate))
	gate.Post("/tap", h.Tap)
	gate.Post("/sync", h.Sync)

	api.Get("/attendance", authRequired, perm(authorize.ResourceAttendance, authorize.ActionRead), h.List)
	api.Post("/students/:id/reconcile", authRequired, perm(authorize.ResourceAttendance, authorize.ActionManage), h.Reconcile)
}
