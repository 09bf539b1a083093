package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/service/settings"
)

type SettingsHandler struct {
	svc settings.Service
}

func NewSettingsHandler(svc settings.Service) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func mapSettingsError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, settings.ErrInvalidClock), errors.Is(err, settings.ErrInvalidValue):
		return badRequest(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "settings handler", "err", err)
		return internalError(c)
	}
}

// GET /api/v1/settings/tap-times
func (h *SettingsHandler) TapTimes(c fiber.Ctx) error {
	t, err := h.svc.TapTimes(c.Context())
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, t)
}

// PUT /api/v1/settings/tap-times  (admin, partial)
func (h *SettingsHandler) UpdateTapTimes(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	var body settings.TapTimes
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	t, err := h.svc.UpdateTapTimes(c.Context(), sess.UserID, body)
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, t)
}

// GET /api/v1/settings/branding  (public)
func (h *SettingsHandler) Branding(c fiber.Ctx) error {
	b, err := h.svc.Branding(c.Context())
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, b)
}

// PUT /api/v1/settings/branding  (admin)
func (h *SettingsHandler) UpdateBranding(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	var body settings.Branding
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	b, err := h.svc.UpdateBranding(c.Context(), sess.UserID, body)
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, b)
}
