package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/attendance"
)

type GateHandler struct {
	svc attendance.Service
}

func NewGateHandler(svc attendance.Service) *GateHandler {
	return &GateHandler{svc: svc}
}

func mapAttendanceError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, attendance.ErrStudentNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, attendance.ErrDuplicateScan),
		errors.Is(err, attendance.ErrAlreadyEntered),
		errors.Is(err, attendance.ErrConcurrentTap):
		return conflict(c, err.Error())
	case errors.Is(err, attendance.ErrNotGatekeeper):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, attendance.ErrSchoolDayBlocked):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, attendance.ErrInvalidCode),
		errors.Is(err, attendance.ErrInvalidMethod),
		errors.Is(err, attendance.ErrEmptySync),
		errors.Is(err, attendance.ErrTooManyScans),
		errors.Is(err, attendance.ErrFutureTimestamp),
		errors.Is(err, attendance.ErrMissingTimestamp):
		return badRequest(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "gate handler", "err", err)
		return internalError(c)
	}
}

// POST /api/v1/gate/tap  (guard or gatekeeper teacher)
func (h *GateHandler) Tap(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		Code      string     `json:"code"`
		Timestamp *time.Time `json:"timestamp"`
		Method    string     `json:"method"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	tap := attendance.Tap{
		Code:     body.Code,
		Method:   body.Method,
		Recorder: attendance.Recorder{ID: sess.UserID, Role: sess.Role},
	}
	if body.Timestamp != nil {
		tap.At = *body.Timestamp
	}

	res, err := h.svc.ProcessTap(c.Context(), tap)
	if err != nil {
		return mapAttendanceError(c, err)
	}

	return created(c, res)
}

// POST /api/v1/gate/sync  (guard or gatekeeper teacher)
func (h *GateHandler) Sync(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		Scans []attendance.OfflineScan `json:"scans"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	results, err := h.svc.Sync(c.Context(), attendance.Recorder{ID: sess.UserID, Role: sess.Role}, body.Scans)
	if err != nil {
		return mapAttendanceError(c, err)
	}

	return ok(c, fiber.Map{"results": results})
}

// GET /api/v1/attendance?student_id=&class_id=&from=&to=&status=
func (h *GateHandler) List(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	var (
		f   repo.AttendanceFilter
		err error
	)
	if f.StudentID, err = queryUUID(c, "student_id"); err != nil {
		return badRequest(c, "invalid student_id")
	}
	if f.ClassID, err = queryUUID(c, "class_id"); err != nil {
		return badRequest(c, "invalid class_id")
	}
	loc := h.svc.Location()
	if f.From, err = queryDate(c, "from", loc); err != nil {
		return badRequest(c, "from must be YYYY-MM-DD")
	}
	if f.To, err = queryDate(c, "to", loc); err != nil {
		return badRequest(c, "to must be YYYY-MM-DD")
	}
	f.Status = c.Query("status")
	if sess.Role == repo.RoleParent {
		f.ParentID = &sess.UserID
	}

	rows, err := h.svc.List(c.Context(), f, pageOf(c))
	if err != nil {
		return mapAttendanceError(c, err)
	}

	return ok(c, rows)
}

// POST /api/v1/students/:id/reconcile  (admin)
func (h *GateHandler) Reconcile(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid student id")
	}

	status, err := h.svc.Reconcile(c.Context(), id)
	if err != nil {
		return mapAttendanceError(c, err)
	}

	return ok(c, fiber.Map{"student_id": id, "current_status": status})
}
