package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/api/http/middleware"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/pkg/reqctx"
	"github.com/educare/track_backend/pkg/validate"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}

func forbidden(c fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}

func tooLarge(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": msg})
}

func tooManyRequests(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": msg})
}

func unavailable(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": msg})
}

func internalError(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// invalid answers 400 with per-field messages when err carries them.
func invalid(c fiber.Ctx, err error) error {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "fields": verr.Fields})
	}
	return badRequest(c, err.Error())
}

// ---------------------------------------------------------------------------
// request helpers
// ---------------------------------------------------------------------------

var errBadBody = errors.New("invalid request body")

// bind decodes the JSON body into dst and checks its validate tags.
func bind(c fiber.Ctx, dst any) error {
	if err := c.Bind().JSON(dst); err != nil {
		return errBadBody
	}
	return validate.Struct(dst)
}

func sessionOf(c fiber.Ctx) (*reqctx.Session, bool) {
	return middleware.SessionFromFiber(c)
}

func paramUUID(c fiber.Ctx, name string) (uuid.UUID, error) {
	return parseUUID(c.Params(name))
}

// parseUUID rejects the nil UUID along with malformed input.
func parseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, errors.New("nil uuid")
	}
	return id, nil
}

// queryUUID returns nil when the parameter is absent.
func queryUUID(c fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// queryDate parses a YYYY-MM-DD parameter in loc. Absent yields nil.
func queryDate(c fiber.Ctx, name string, loc *time.Location) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// pageOf reads limit/offset. The repository clamps out-of-range values.
func pageOf(c fiber.Ctx) repo.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return repo.Page{Limit: limit, Offset: offset}
}
