package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/service/excuse"
	"github.com/educare/track_backend/pkg/validate"
)

type ExcuseHandler struct {
	svc excuse.Service
}

func NewExcuseHandler(svc excuse.Service) *ExcuseHandler {
	return &ExcuseHandler{svc: svc}
}

func mapExcuseError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, validate.ErrInvalid):
		return invalid(c, err)
	case errors.Is(err, excuse.ErrExcuseNotFound),
		errors.Is(err, excuse.ErrStudentNotFound),
		errors.Is(err, excuse.ErrNoAttachment):
		return notFound(c, err.Error())
	case errors.Is(err, excuse.ErrNotLinked),
		errors.Is(err, excuse.ErrNotAdviser),
		errors.Is(err, excuse.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, excuse.ErrAlreadyDecided):
		return conflict(c, err.Error())
	case errors.Is(err, excuse.ErrAttachmentTooLarge):
		return tooLarge(c, err.Error())
	case errors.Is(err, excuse.ErrInvalidDate),
		errors.Is(err, excuse.ErrInvalidDecision),
		errors.Is(err, excuse.ErrCommentRequired),
		errors.Is(err, excuse.ErrAttachmentType):
		return badRequest(c, err.Error())
	case errors.Is(err, excuse.ErrStorageDisabled):
		return unavailable(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "excuse handler", "err", err)
		return internalError(c)
	}
}

// POST /api/v1/excuses  (parent, multipart: student_id, absent_date, reason, file?)
func (h *ExcuseHandler) Submit(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	studentID, err := parseUUID(c.FormValue("student_id"))
	if err != nil {
		return badRequest(c, "invalid student_id")
	}
	req := excuse.SubmitRequest{
		StudentID:  studentID,
		AbsentDate: c.FormValue("absent_date"),
		Reason:     c.FormValue("reason"),
	}

	var att *excuse.Attachment
	if fh, ferr := c.FormFile("file"); ferr == nil {
		if fh.Size > excuse.MaxAttachmentBytes {
			return tooLarge(c, excuse.ErrAttachmentTooLarge.Error())
		}
		f, err := fh.Open()
		if err != nil {
			return badRequest(c, "unreadable upload")
		}
		defer f.Close()
		att = &excuse.Attachment{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		}
	}

	letter, err := h.svc.Submit(c.Context(), sess.UserID, req, att)
	if err != nil {
		return mapExcuseError(c, err)
	}

	return created(c, letter)
}

// POST /api/v1/excuses/:id/decision  (adviser or admin)
func (h *ExcuseHandler) Decide(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid excuse id")
	}

	var body excuse.DecideRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	letter, err := h.svc.Decide(c.Context(), excuse.Caller{ID: sess.UserID, Role: sess.Role}, id, body)
	if err != nil {
		return mapExcuseError(c, err)
	}

	return ok(c, letter)
}

// GET /api/v1/excuses?status=pending
func (h *ExcuseHandler) List(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	letters, err := h.svc.List(c.Context(), excuse.Caller{ID: sess.UserID, Role: sess.Role}, c.Query("status"), pageOf(c))
	if err != nil {
		return mapExcuseError(c, err)
	}

	return ok(c, letters)
}

// GET /api/v1/excuses/:id/attachment  (redirects to a presigned URL)
func (h *ExcuseHandler) Attachment(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid excuse id")
	}

	url, err := h.svc.AttachmentURL(c.Context(), excuse.Caller{ID: sess.UserID, Role: sess.Role}, id)
	if err != nil {
		return mapExcuseError(c, err)
	}

	return c.Redirect().Status(fiber.StatusFound).To(url)
}
