package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/pkg/reqctx"
)

const LocalsSession = "auth.session"

// SessionResolver turns a bearer token into the caller's session.
// auth.Service satisfies it.
type SessionResolver interface {
	ResolveSession(ctx context.Context, accessToken string) (*reqctx.Session, error)
}

// AuthRequired validates a Bearer PASETO access token through the session
// store and reloads the caller's profile. On success the Session is stored
// in Locals and in the request context.
func AuthRequired(res SessionResolver) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		sess, err := res.ResolveSession(c.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals(LocalsSession, sess)
		c.SetContext(reqctx.WithSession(c.Context(), sess))
		return c.Next()
	}
}

// SessionFromFiber returns the session stored by AuthRequired.
func SessionFromFiber(c fiber.Ctx) (*reqctx.Session, bool) {
	s, ok := c.Locals(LocalsSession).(*reqctx.Session)
	return s, ok && s != nil
}
