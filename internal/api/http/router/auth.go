package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/api/http/handler"
	"github.com/educare/track_backend/internal/api/http/middleware"
)

func (r *Router) registerAuthRoutes(api fiber.Router, h *handler.AuthHandler, userH *handler.UserHandler, authRequired fiber.Handler) {
	group := api.Group("/auth")
	group.Post("/login", middleware.NewLoginLimiter(r.p.Redis), h.Login)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", authRequired, h.Logout)
	group.Post("/change-password", authRequired, h.ChangePassword)
	group.Get("/me", authRequired, userH.GetMe)
}
