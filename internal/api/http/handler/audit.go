package handler

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/service/audit"
)

type AuditHandler struct {
	svc audit.Service
	loc *time.Location
}

func NewAuditHandler(svc audit.Service, loc *time.Location) *AuditHandler {
	return &AuditHandler{svc: svc, loc: loc}
}

// GET /api/v1/audit?actor_id=&action=&target_table=&from=&to=  (admin)
func (h *AuditHandler) List(c fiber.Ctx) error {
	var (
		f   audit.Filter
		err error
	)
	if f.ActorID, err = queryUUID(c, "actor_id"); err != nil {
		return badRequest(c, "invalid actor_id")
	}
	if f.From, err = queryDate(c, "from", h.loc); err != nil {
		return badRequest(c, "from must be YYYY-MM-DD")
	}
	if f.To, err = queryDate(c, "to", h.loc); err != nil {
		return badRequest(c, "to must be YYYY-MM-DD")
	}
	f.Action = c.Query("action")
	f.TargetTable = c.Query("target_table")

	rows, err := h.svc.List(c.Context(), f, pageOf(c))
	if err != nil {
		slog.ErrorContext(c.Context(), "audit handler", "err", err)
		return internalError(c)
	}

	return ok(c, rows)
}
