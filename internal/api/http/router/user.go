package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/api/http/handler"
	"github.com/educare/track_backend/internal/api/http/middleware"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/pkg/authorize"
)

func (r *Router) registerUserRoutes(api fiber.Router, h *handler.UserHandler, authRequired fiber.Handler, perm guard) {
	users := api.Group("/users", authRequired)
	users.Get("/me", h.GetMe)
	users.Get("/", perm(authorize.ResourceUser, authorize.ActionRead), h.List)
	users.Get("/:id", perm(authorize.ResourceUser, authorize.ActionRead), h.Get)

	// account provisioning is admin-only regardless of policy grants
	admin := api.Group("/admin/users", authRequired, middleware.RequireRole(repo.RoleAdmin))
	admin.Post("/", perm(authorize.ResourceUser, authorize.ActionCreate), h.Create)
	admin.Patch("/:id", perm(authorize.ResourceUser, authorize.ActionUpdate), h.Update)
	admin.Put("/:id/gatekeeper", perm(authorize.ResourceUser, authorize.ActionUpdate), h.SetGatekeeper)
}
