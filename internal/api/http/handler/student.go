package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/student"
	"github.com/educare/track_backend/pkg/validate"
)

type StudentHandler struct {
	svc student.Service
}

func NewStudentHandler(svc student.Service) *StudentHandler {
	return &StudentHandler{svc: svc}
}

func mapStudentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, validate.ErrInvalid):
		return invalid(c, err)
	case errors.Is(err, student.ErrStudentNotFound),
		errors.Is(err, student.ErrLinkNotFound),
		errors.Is(err, student.ErrClassNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, student.ErrInvalidCode),
		errors.Is(err, student.ErrPhotoInvalid),
		errors.Is(err, student.ErrNotParent):
		return badRequest(c, err.Error())
	case errors.Is(err, student.ErrPhotoTooLarge):
		return tooLarge(c, err.Error())
	case errors.Is(err, student.ErrStorageDisabled):
		return unavailable(c, err.Error())
	case errors.Is(err, student.ErrCodeExhausted):
		return conflict(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "student handler", "err", err)
		return internalError(c)
	}
}

// POST /api/v1/students  (admin)
func (h *StudentHandler) Create(c fiber.Ctx) error {
	var body student.CreateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	v, err := h.svc.Create(c.Context(), body)
	if err != nil {
		return mapStudentError(c, err)
	}

	return created(c, v)
}

// GET /api/v1/students?class_id=&q=
// Parents are limited to their linked children.
func (h *StudentHandler) List(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	f := repo.StudentFilter{Search: c.Query("q")}
	classID, err := queryUUID(c, "class_id")
	if err != nil {
		return badRequest(c, "invalid class_id")
	}
	f.ClassID = classID
	if sess.Role == repo.RoleParent {
		f.ParentID = &sess.UserID
	}

	list, err := h.svc.List(c.Context(), f, pageOf(c))
	if err != nil {
		return mapStudentError(c, err)
	}

	return ok(c, list)
}

// GET /api/v1/students/:id
func (h *StudentHandler) Get(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid student id")
	}

	v, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return mapStudentError(c, err)
	}

	return ok(c, v)
}

// GET /api/v1/students/code/:code
func (h *StudentHandler) GetByCode(c fiber.Ctx) error {
	v, err := h.svc.GetByCode(c.Context(), c.Params("code"))
	if err != nil {
		return mapStudentError(c, err)
	}

	return ok(c, v)
}

// GET /api/v1/students/:id/qr.png
func (h *StudentHandler) QRCode(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid student id")
	}

	png, err := h.svc.QRCode(c.Context(), id)
	if err != nil {
		return mapStudentError(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "private, max-age=86400")
	return c.Send(png)
}

// PUT /api/v1/students/:id/photo  (multipart, field "photo")
func (h *StudentHandler) UploadPhoto(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid student id")
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		return badRequest(c, "photo file is required")
	}
	if fh.Size > student.MaxPhotoBytes {
		return tooLarge(c, student.ErrPhotoTooLarge.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "unreadable upload")
	}
	defer f.Close()

	v, err := h.svc.UploadPhoto(c.Context(), id, f)
	if err != nil {
		return mapStudentError(c, err)
	}

	return ok(c, v)
}

// PUT /api/v1/students/:id/parents/:parentId  (admin)
func (h *StudentHandler) LinkParent(c fiber.Ctx) error {
	studentID, parentID, err := linkIDs(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.LinkParent(c.Context(), parentID, studentID); err != nil {
		return mapStudentError(c, err)
	}

	return noContent(c)
}

// PUT /api/v1/students/:id/class  (admin)
func (h *StudentHandler) Transfer(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid student id")
	}
	var body struct {
		ClassID uuid.UUID `json:"class_id" validate:"required"`
	}
	if err := bind(c, &body); err != nil {
		return invalid(c, err)
	}

	v, err := h.svc.Transfer(c.Context(), sess.UserID, id, body.ClassID)
	if err != nil {
		return mapStudentError(c, err)
	}

	return ok(c, v)
}

// DELETE /api/v1/students/:id/parents/:parentId  (admin)
func (h *StudentHandler) UnlinkParent(c fiber.Ctx) error {
	studentID, parentID, err := linkIDs(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.svc.UnlinkParent(c.Context(), parentID, studentID); err != nil {
		return mapStudentError(c, err)
	}

	return noContent(c)
}

func linkIDs(c fiber.Ctx) (studentID, parentID uuid.UUID, err error) {
	s, err := paramUUID(c, "id")
	if err != nil {
		return studentID, parentID, errors.New("invalid student id")
	}
	p, err := paramUUID(c, "parentId")
	if err != nil {
		return studentID, parentID, errors.New("invalid parent id")
	}
	return s, p, nil
}

// ---------------------------------------------------------------------------
// Classes
// ---------------------------------------------------------------------------

// POST /api/v1/classes  (admin)
func (h *StudentHandler) CreateClass(c fiber.Ctx) error {
	var body student.ClassRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	cl, err := h.svc.CreateClass(c.Context(), body)
	if err != nil {
		return mapStudentError(c, err)
	}

	return created(c, cl)
}

// GET /api/v1/classes
func (h *StudentHandler) ListClasses(c fiber.Ctx) error {
	classes, err := h.svc.ListClasses(c.Context())
	if err != nil {
		return mapStudentError(c, err)
	}

	return ok(c, classes)
}
