package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/calendar"
	"github.com/educare/track_backend/internal/service/roster"
	"github.com/educare/track_backend/pkg/validate"
)

type RosterHandler struct {
	svc roster.Service
	loc *time.Location
}

func NewRosterHandler(svc roster.Service, loc *time.Location) *RosterHandler {
	return &RosterHandler{svc: svc, loc: loc}
}

func mapRosterError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, validate.ErrInvalid):
		return invalid(c, err)
	case errors.Is(err, roster.ErrScheduleNotFound),
		errors.Is(err, roster.ErrClassNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, roster.ErrNotYourSchedule):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, roster.ErrSessionLocked):
		return conflict(c, err.Error())
	case errors.Is(err, roster.ErrNoClasses):
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, roster.ErrWrongDay),
		errors.Is(err, roster.ErrInvalidStatus),
		errors.Is(err, roster.ErrNotInClass),
		errors.Is(err, roster.ErrInvalidPeriod),
		errors.Is(err, roster.ErrSubjectRequired):
		return badRequest(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "roster handler", "err", err)
		return internalError(c)
	}
}

func rosterCaller(c fiber.Ctx) (roster.Caller, bool) {
	sess, valid := sessionOf(c)
	if !valid {
		return roster.Caller{}, false
	}
	return roster.Caller{ID: sess.UserID, Role: sess.Role}, true
}

// day reads ?date=YYYY-MM-DD, defaulting to today in the school zone.
func (h *RosterHandler) day(c fiber.Ctx) (time.Time, error) {
	d, err := queryDate(c, "date", h.loc)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return calendar.Day(time.Now(), h.loc), nil
	}
	return calendar.Day(*d, nil), nil
}

// ---------------------------------------------------------------------------
// Subjects and schedules
// ---------------------------------------------------------------------------

// GET /api/v1/subjects
func (h *RosterHandler) ListSubjects(c fiber.Ctx) error {
	subs, err := h.svc.ListSubjects(c.Context())
	if err != nil {
		return mapRosterError(c, err)
	}
	return ok(c, subs)
}

// PUT /api/v1/subjects/:code  (admin)
func (h *RosterHandler) UpsertSubject(c fiber.Ctx) error {
	var body struct {
		Name string `json:"name" validate:"required,max=200"`
	}
	if err := bind(c, &body); err != nil {
		return invalid(c, err)
	}
	sub, err := h.svc.UpsertSubject(c.Context(), c.Params("code"), body.Name)
	if err != nil {
		return mapRosterError(c, err)
	}
	return ok(c, sub)
}

// GET /api/v1/schedules?class_id=&teacher_id=&day=mon
// Teachers without a class filter see their own periods.
func (h *RosterHandler) ListSchedules(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	var (
		f   = repo.ScheduleFilter{DayOfWeek: c.Query("day")}
		err error
	)
	if f.ClassID, err = queryUUID(c, "class_id"); err != nil {
		return badRequest(c, "invalid class_id")
	}
	if f.TeacherID, err = queryUUID(c, "teacher_id"); err != nil {
		return badRequest(c, "invalid teacher_id")
	}
	if sess.Role == repo.RoleTeacher && f.ClassID == nil {
		f.TeacherID = &sess.UserID
	}
	out, err := h.svc.ListSchedules(c.Context(), f)
	if err != nil {
		return mapRosterError(c, err)
	}
	return ok(c, out)
}

// PUT /api/v1/classes/:id/schedules  (admin)
func (h *RosterHandler) ReplaceSchedules(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	classID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid class id")
	}
	var body struct {
		Semester *string                `json:"semester"`
		Periods  []roster.ScheduleInput `json:"periods"`
	}
	if err := bind(c, &body); err != nil {
		return invalid(c, err)
	}
	out, err := h.svc.ReplaceSchedules(c.Context(), sess.UserID, classID, body.Semester, body.Periods)
	if err != nil {
		return mapRosterError(c, err)
	}
	return ok(c, out)
}

// ---------------------------------------------------------------------------
// Subject sheet
// ---------------------------------------------------------------------------

// GET /api/v1/schedules/:id/sheet?date=YYYY-MM-DD
func (h *RosterHandler) Sheet(c fiber.Ctx) error {
	caller, valid := rosterCaller(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid schedule id")
	}
	day, err := h.day(c)
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	sheet, err := h.svc.Sheet(c.Context(), caller, id, day)
	if err != nil {
		return mapRosterError(c, err)
	}
	return ok(c, sheet)
}

// PUT /api/v1/schedules/:id/marks?date=YYYY-MM-DD
func (h *RosterHandler) Mark(c fiber.Ctx) error {
	caller, valid := rosterCaller(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid schedule id")
	}
	day, err := h.day(c)
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	var body struct {
		Marks []roster.MarkInput `json:"marks" validate:"required,min=1,dive"`
	}
	if err := bind(c, &body); err != nil {
		return invalid(c, err)
	}
	res, err := h.svc.Mark(c.Context(), caller, id, day, body.Marks)
	if err != nil {
		return mapRosterError(c, err)
	}
	return ok(c, res)
}

// POST /api/v1/schedules/:id/validate?date=YYYY-MM-DD
func (h *RosterHandler) Validate(c fiber.Ctx) error {
	caller, valid := rosterCaller(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid schedule id")
	}
	day, err := h.day(c)
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	res, err := h.svc.Validate(c.Context(), caller, id, day)
	if err != nil {
		return mapRosterError(c, err)
	}
	return ok(c, res)
}

// GET /api/v1/homeroom?date=YYYY-MM-DD  (adviser)
func (h *RosterHandler) Homeroom(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	day, err := h.day(c)
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	out, err := h.svc.Homeroom(c.Context(), sess.UserID, day)
	if err != nil {
		return mapRosterError(c, err)
	}
	return ok(c, out)
}
