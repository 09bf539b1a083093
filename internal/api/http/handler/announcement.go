package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/service/announcement"
	"github.com/educare/track_backend/pkg/validate"
)

type AnnouncementHandler struct {
	svc announcement.Service
}

func NewAnnouncementHandler(svc announcement.Service) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc}
}

func mapAnnouncementError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, validate.ErrInvalid):
		return invalid(c, err)
	case errors.Is(err, announcement.ErrAnnouncementNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, announcement.ErrInvalidAudience):
		return badRequest(c, err.Error())
	case errors.Is(err, announcement.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		slog.ErrorContext(c.Context(), "announcement handler", "err", err)
		return internalError(c)
	}
}

// POST /api/v1/announcements  (teacher or admin)
func (h *AnnouncementHandler) Post(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	var body announcement.PostRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	a, err := h.svc.Post(c.Context(), announcement.Poster{ID: sess.UserID, Role: sess.Role}, body)
	if err != nil {
		return mapAnnouncementError(c, err)
	}

	return created(c, a)
}

// GET /api/v1/announcements
func (h *AnnouncementHandler) List(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	list, err := h.svc.List(c.Context(), sess.Role, pageOf(c))
	if err != nil {
		return mapAnnouncementError(c, err)
	}

	return ok(c, list)
}

// DELETE /api/v1/announcements/:id  (admin)
func (h *AnnouncementHandler) Delete(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid announcement id")
	}

	if err := h.svc.Delete(c.Context(), id); err != nil {
		return mapAnnouncementError(c, err)
	}

	return noContent(c)
}
