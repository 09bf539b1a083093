package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/pkg/authorize"
)

// RequirePermission checks the authenticated caller against the casbin
// policy in the sys domain. It must run after AuthRequired.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		if _, ok := SessionFromFiber(c); !ok {
			return fiber.ErrUnauthorized
		}

		if err := authorize.EnforceSession(c.Context(), auth, resource, action); err != nil {
			switch {
			case errors.Is(err, authorize.ErrForbidden):
				return fiber.ErrForbidden
			case errors.Is(err, authorize.ErrNoSubjectInContext):
				return fiber.ErrUnauthorized
			}
			return err
		}

		return c.Next()
	}
}

// RequireRole short-circuits with 403 unless the caller holds one of roles.
// Used where the policy matrix is coarser than the route needs.
func RequireRole(roles ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		s, ok := SessionFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		if !s.HasRole(roles...) {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}
