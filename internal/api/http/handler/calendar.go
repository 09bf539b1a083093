package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/service/calendar"
)

type CalendarHandler struct {
	svc calendar.Service
	loc *time.Location
}

func NewCalendarHandler(svc calendar.Service, loc *time.Location) *CalendarHandler {
	return &CalendarHandler{svc: svc, loc: loc}
}

func mapCalendarError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, calendar.ErrEntryNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, calendar.ErrInvalidType),
		errors.Is(err, calendar.ErrInvalidRange),
		errors.Is(err, calendar.ErrTitleRequired):
		return badRequest(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "calendar handler", "err", err)
		return internalError(c)
	}
}

type calendarBody struct {
	Title      string `json:"title"`
	Type       string `json:"type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	GradeScope string `json:"grade_scope"`
	Notes      string `json:"notes"`
}

func (b calendarBody) input(loc *time.Location) (calendar.Input, error) {
	start, err := time.ParseInLocation(time.DateOnly, b.StartDate, loc)
	if err != nil {
		return calendar.Input{}, errors.New("start_date must be YYYY-MM-DD")
	}
	end := start
	if b.EndDate != "" {
		if end, err = time.ParseInLocation(time.DateOnly, b.EndDate, loc); err != nil {
			return calendar.Input{}, errors.New("end_date must be YYYY-MM-DD")
		}
	}
	return calendar.Input{
		Title:      b.Title,
		Type:       b.Type,
		StartDate:  start,
		EndDate:    end,
		GradeScope: b.GradeScope,
		Notes:      b.Notes,
	}, nil
}

// GET /api/v1/calendar?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *CalendarHandler) List(c fiber.Ctx) error {
	from, err := queryDate(c, "from", h.loc)
	if err != nil {
		return badRequest(c, "from must be YYYY-MM-DD")
	}
	to, err := queryDate(c, "to", h.loc)
	if err != nil {
		return badRequest(c, "to must be YYYY-MM-DD")
	}
	today := calendar.Day(time.Now(), h.loc)
	if from == nil {
		start := today.AddDate(0, 0, -today.Day()+1)
		from = &start
	}
	if to == nil {
		end := from.AddDate(0, 1, -1)
		to = &end
	}

	entries, err := h.svc.List(c.Context(), *from, *to)
	if err != nil {
		return mapCalendarError(c, err)
	}

	return ok(c, entries)
}

// GET /api/v1/calendar/check?date=YYYY-MM-DD&grade=Grade 7
func (h *CalendarHandler) Check(c fiber.Ctx) error {
	day, err := queryDate(c, "date", h.loc)
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	if day == nil {
		today := calendar.Day(time.Now(), h.loc)
		day = &today
	}

	res, err := h.svc.CheckDay(c.Context(), *day, c.Query("grade"))
	if err != nil {
		return mapCalendarError(c, err)
	}

	return ok(c, res)
}

// POST /api/v1/calendar  (admin)
func (h *CalendarHandler) Create(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	var body calendarBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	in, err := body.input(h.loc)
	if err != nil {
		return badRequest(c, err.Error())
	}

	entry, err := h.svc.Create(c.Context(), sess.UserID, in)
	if err != nil {
		return mapCalendarError(c, err)
	}

	return created(c, entry)
}

// PUT /api/v1/calendar/:id  (admin)
func (h *CalendarHandler) Update(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid calendar id")
	}

	var body calendarBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	in, err := body.input(h.loc)
	if err != nil {
		return badRequest(c, err.Error())
	}

	entry, err := h.svc.Update(c.Context(), sess.UserID, id, in)
	if err != nil {
		return mapCalendarError(c, err)
	}

	return ok(c, entry)
}

// DELETE /api/v1/calendar/:id  (admin)
func (h *CalendarHandler) Delete(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid calendar id")
	}

	if err := h.svc.Delete(c.Context(), sess.UserID, id); err != nil {
		return mapCalendarError(c, err)
	}

	return noContent(c)
}
