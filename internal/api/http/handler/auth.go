package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/service/auth"
	"github.com/educare/track_backend/pkg/util/password"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type changePasswordBody struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,nefield=CurrentPassword"`
}

func mapAuthError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrSessionNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, auth.ErrAccountInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, auth.ErrAccountLocked):
		return tooManyRequests(c, err.Error())
	case errors.Is(err, auth.ErrWrongPassword), errors.Is(err, password.ErrTooShort):
		return badRequest(c, err.Error())
	}
	slog.ErrorContext(c.Context(), "auth handler", "err", err)
	return internalError(c)
}

// POST /api/v1/auth/login
//
// Guards and the terminal agent log in here as well as staff and parents.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body loginBody
	if err := bind(c, &body); err != nil {
		return invalid(c, err)
	}
	tokens, err := h.svc.Login(c.Context(), auth.LoginRequest{Email: body.Email, Password: body.Password})
	if err != nil {
		return mapAuthError(c, err)
	}
	return ok(c, tokens)
}

// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body refreshBody
	if err := bind(c, &body); err != nil {
		return invalid(c, err)
	}
	tokens, err := h.svc.RefreshTokens(c.Context(), body.RefreshToken)
	if err != nil {
		return mapAuthError(c, err)
	}
	return ok(c, tokens)
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	sess, found := sessionOf(c)
	if !found {
		return unauthorized(c)
	}
	if err := h.svc.Logout(c.Context(), sess.UserID, sess.SessionID); err != nil {
		return mapAuthError(c, err)
	}
	return noContent(c)
}

// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c fiber.Ctx) error {
	sess, found := sessionOf(c)
	if !found {
		return unauthorized(c)
	}
	var body changePasswordBody
	if err := bind(c, &body); err != nil {
		return invalid(c, err)
	}
	if err := h.svc.ChangePassword(c.Context(), sess.UserID, body.CurrentPassword, body.NewPassword); err != nil {
		return mapAuthError(c, err)
	}
	return noContent(c)
}
