package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/service/user"
	"github.com/educare/track_backend/pkg/util/password"
	"github.com/educare/track_backend/pkg/validate"
)

type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

func mapUserError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, validate.ErrInvalid):
		return invalid(c, err)
	case errors.Is(err, user.ErrUserNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, user.ErrEmailAlreadyExists):
		return conflict(c, err.Error())
	case errors.Is(err, user.ErrInvalidPhone),
		errors.Is(err, user.ErrNotTeacher),
		errors.Is(err, user.ErrSelfDeactivation),
		errors.Is(err, password.ErrTooShort):
		return badRequest(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "user handler", "err", err)
		return internalError(c)
	}
}

// GET /api/v1/users/me
func (h *UserHandler) GetMe(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	u, err := h.svc.GetByID(c.Context(), sess.UserID)
	if err != nil {
		return mapUserError(c, err)
	}

	return ok(c, u)
}

// POST /api/v1/admin/users
func (h *UserHandler) Create(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	var body user.CreateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	id, err := h.svc.Create(c.Context(), sess.UserID, body)
	if err != nil {
		return mapUserError(c, err)
	}

	return created(c, fiber.Map{"id": id})
}

// PATCH /api/v1/admin/users/:id
func (h *UserHandler) Update(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var body user.UpdateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.Update(c.Context(), sess.UserID, id, body)
	if err != nil {
		return mapUserError(c, err)
	}

	return ok(c, p)
}

// GET /api/v1/users/:id  (admin)
func (h *UserHandler) Get(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	p, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return mapUserError(c, err)
	}

	return ok(c, p)
}

// GET /api/v1/users?role=teacher  (admin)
func (h *UserHandler) List(c fiber.Ctx) error {
	users, err := h.svc.List(c.Context(), c.Query("role"), pageOf(c))
	if err != nil {
		return mapUserError(c, err)
	}

	return ok(c, users)
}

// PUT /api/v1/admin/users/:id/gatekeeper
func (h *UserHandler) SetGatekeeper(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var body struct {
		IsGatekeeper bool `json:"is_gatekeeper"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.svc.SetGatekeeper(c.Context(), sess.UserID, id, body.IsGatekeeper); err != nil {
		return mapUserError(c, err)
	}

	return noContent(c)
}
