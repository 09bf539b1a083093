package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/clinic"
)

type ClinicHandler struct {
	svc clinic.Service
}

func NewClinicHandler(svc clinic.Service) *ClinicHandler {
	return &ClinicHandler{svc: svc}
}

func mapClinicError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, clinic.ErrPassNotFound),
		errors.Is(err, clinic.ErrVisitNotFound),
		errors.Is(err, clinic.ErrStudentNotFound),
		errors.Is(err, clinic.ErrNoApprovedPass):
		return notFound(c, err.Error())
	case errors.Is(err, clinic.ErrPassNotPending),
		errors.Is(err, clinic.ErrInvalidTransition),
		errors.Is(err, clinic.ErrStudentStatusMoved):
		return conflict(c, err.Error())
	case errors.Is(err, clinic.ErrNotIssuer):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, clinic.ErrInvalidCode),
		errors.Is(err, clinic.ErrReasonRequired),
		errors.Is(err, clinic.ErrRejectionRequired),
		errors.Is(err, clinic.ErrInvalidDecision):
		return badRequest(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "clinic handler", "err", err)
		return internalError(c)
	}
}

// ---------------------------------------------------------------------------
// Passes
// ---------------------------------------------------------------------------

// POST /api/v1/clinic/passes  (teacher)
func (h *ClinicHandler) IssuePass(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		StudentID string `json:"student_id"`
		Reason    string `json:"reason"`
		Notes     string `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	studentID, err := parseUUID(body.StudentID)
	if err != nil {
		return badRequest(c, "invalid student_id")
	}

	pass, err := h.svc.IssuePass(c.Context(), sess.UserID, clinic.IssueRequest{
		StudentID: studentID,
		Reason:    body.Reason,
		Notes:     body.Notes,
	})
	if err != nil {
		return mapClinicError(c, err)
	}

	return created(c, pass)
}

// POST /api/v1/clinic/passes/:id/approve  (clinic)
func (h *ClinicHandler) ApprovePass(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid pass id")
	}

	pass, err := h.svc.ApprovePass(c.Context(), sess.UserID, id)
	if err != nil {
		return mapClinicError(c, err)
	}

	return ok(c, pass)
}

// POST /api/v1/clinic/passes/:id/reject  (clinic)
func (h *ClinicHandler) RejectPass(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid pass id")
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	pass, err := h.svc.RejectPass(c.Context(), sess.UserID, id, body.Reason)
	if err != nil {
		return mapClinicError(c, err)
	}

	return ok(c, pass)
}

// GET /api/v1/clinic/passes?status=pending&student_id=
// Teachers only ever see the passes they issued.
func (h *ClinicHandler) ListPasses(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	f := repo.PassFilter{Status: c.Query("status")}
	studentID, err := queryUUID(c, "student_id")
	if err != nil {
		return badRequest(c, "invalid student_id")
	}
	f.StudentID = studentID
	if sess.Role == repo.RoleTeacher {
		f.IssuedBy = &sess.UserID
	}

	passes, err := h.svc.ListPasses(c.Context(), f, pageOf(c))
	if err != nil {
		return mapClinicError(c, err)
	}

	return ok(c, passes)
}

// ---------------------------------------------------------------------------
// Visits
// ---------------------------------------------------------------------------

// POST /api/v1/clinic/visits  (clinic scans the student QR)
func (h *ClinicHandler) CheckIn(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	visit, err := h.svc.CheckIn(c.Context(), sess.UserID, body.Code)
	if err != nil {
		return mapClinicError(c, err)
	}

	return created(c, visit)
}

// PUT /api/v1/clinic/visits/:id/findings  (clinic)
func (h *ClinicHandler) RecordFindings(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid visit id")
	}

	var body struct {
		Reason   string `json:"reason"`
		Notes    string `json:"notes"`
		Decision string `json:"decision"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	visit, err := h.svc.RecordFindings(c.Context(), sess.UserID, id, clinic.FindingsRequest{
		Reason:   body.Reason,
		Notes:    body.Notes,
		Decision: body.Decision,
	})
	if err != nil {
		return mapClinicError(c, err)
	}

	return ok(c, visit)
}

// POST /api/v1/clinic/visits/:id/notify-parent  (issuing teacher or admin)
func (h *ClinicHandler) NotifyParent(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid visit id")
	}

	visit, err := h.svc.NotifyParent(c.Context(), clinic.Caller{
		ID:      sess.UserID,
		IsAdmin: sess.Role == repo.RoleAdmin,
	}, id)
	if err != nil {
		return mapClinicError(c, err)
	}

	return ok(c, visit)
}

// POST /api/v1/clinic/visits/:id/discharge  (clinic)
func (h *ClinicHandler) Discharge(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid visit id")
	}

	visit, err := h.svc.Discharge(c.Context(), sess.UserID, id)
	if err != nil {
		return mapClinicError(c, err)
	}

	return ok(c, visit)
}

// GET /api/v1/clinic/visits/:id
func (h *ClinicHandler) GetVisit(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid visit id")
	}

	visit, err := h.svc.GetVisit(c.Context(), id)
	if err != nil {
		return mapClinicError(c, err)
	}

	return ok(c, visit)
}

// GET /api/v1/clinic/visits?queue=pending_findings|parent_approval|discharge
func (h *ClinicHandler) ListVisits(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	f := repo.VisitFilter{Queue: repo.VisitQueue(c.Query("queue"))}
	switch f.Queue {
	case repo.QueueAll, repo.QueuePendingFindings, repo.QueueParentApproval, repo.QueueDischarge:
	default:
		return badRequest(c, "unknown queue")
	}
	studentID, err := queryUUID(c, "student_id")
	if err != nil {
		return badRequest(c, "invalid student_id")
	}
	f.StudentID = studentID
	if sess.Role == repo.RoleTeacher {
		f.IssuedBy = &sess.UserID
	}

	visits, err := h.svc.ListVisits(c.Context(), f, pageOf(c))
	if err != nil {
		return mapClinicError(c, err)
	}

	return ok(c, visits)
}
