package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/api/http/handler"
	"github.com/educare/track_backend/internal/api/http/middleware"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/pkg/authorize"
)

func (r *Router) registerStudentRoutes(api fiber.Router, h *handler.StudentHandler, authRequired fiber.Handler, perm guard) {
	read := perm(authorize.ResourceStudent, authorize.ActionRead)
	write := perm(authorize.ResourceStudent, authorize.ActionUpdate)
	// parents reach their children only through the filtered list
	staff := middleware.RequireRole(repo.RoleAdmin, repo.RoleTeacher, repo.RoleGuard, repo.RoleClinic)

	group := api.Group("/students", authRequired)
	group.Get("/", read, h.List)
	group.Post("/", perm(authorize.ResourceStudent, authorize.ActionCreate), h.Create)
	group.Get("/code/:code", read, staff, h.GetByCode)
	group.Get("/:id", read, staff, h.Get)
	group.Get("/:id/qr.png", read, staff, h.QRCode)
	group.Put("/:id/photo", write, h.UploadPhoto)
	group.Put("/:id/parents/:parentId", write, h.LinkParent)
	group.Delete("/:id/parents/:parentId", write, h.UnlinkParent)
	group.Put("/:id/class", perm(authorize.ResourceStudent, authorize.ActionManage), h.Transfer)

	classes := api.Group("/classes", authRequired)
	classes.Get("/", read, h.ListClasses)
	classes.Post("/", perm(authorize.ResourceStudent, authorize.ActionCreate), h.CreateClass)
}
