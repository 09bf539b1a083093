package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/api/http/handler"
	"github.com/educare/track_backend/pkg/authorize"
)

func (r *Router) registerClinicRoutes(api fiber.Router, h *handler.ClinicHandler, authRequired fiber.Handler, perm guard) {
	group := api.Group("/clinic", authRequired)

	passes := group.Group("/passes")
	passes.Get("/", perm(authorize.ResourceClinicPass, authorize.ActionRead), h.ListPasses)
	passes.Post("/", perm(authorize.ResourceClinicPass, authorize.ActionCreate), h.IssuePass)
	passes.Post("/:id/approve", perm(authorize.ResourceClinicPass, authorize.ActionApprove), h.ApprovePass)
	passes.Post("/:id/reject", perm(authorize.ResourceClinicPass, authorize.ActionApprove), h.RejectPass)

	visits := group.Group("/visits")
	visits.Get("/", perm(authorize.ResourceClinicVisit, authorize.ActionRead), h.ListVisits)
	visits.Post("/", perm(authorize.ResourceClinicVisit, authorize.ActionCreate), h.CheckIn)
	visits.Get("/:id", perm(authorize.ResourceClinicVisit, authorize.ActionRead), h.GetVisit)
	visits.Put("/:id/findings", perm(authorize.ResourceClinicVisit, authorize.ActionUpdate), h.RecordFindings)
	visits.Post("/:id/notify-parent", perm(authorize.ResourceClinicVisit, authorize.ActionApprove), h.NotifyParent)
	visits.Post("/:id/discharge", perm(authorize.ResourceClinicVisit, authorize.ActionUpdate), h.Discharge)
}
