package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const passColumns = `id, student_id, issued_by, reason, notes, status, clinic_visit_id, rejection_reason, reviewed_by, reviewed_at, issued_at`
const visitColumns = `id, student_id, pass_id, checked_in_by, treated_by, visit_time, reason, notes, decision, parent_notified, status, outcome, released_at`

func (q *Queries) InsertPass(ctx context.Context, studentID, issuedBy uuid.UUID, reason, notes string) (ClinicPass, error) {
	rows, err := q.db.Query(ctx, `
		INSERT INTO clinic_passes (id, student_id, issued_by, reason, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+passColumns,
		newID(), studentID, issuedBy, reason, notes)
	return collectOne[ClinicPass]("insert clinic pass", rows, err)
}

func (q *Queries) PassByID(ctx context.Context, id uuid.UUID) (ClinicPass, error) {
	rows, err := q.db.Query(ctx, `SELECT `+passColumns+` FROM clinic_passes WHERE id = $1`, id)
	return collectOne[ClinicPass]("clinic pass by id", rows, err)
}

// ReviewPass moves a pending pass to approved or rejected. A pass that is no
// longer pending yields ErrStaleStatus.
func (q *Queries) ReviewPass(ctx context.Context, id uuid.UUID, status string, reviewer uuid.UUID, rejection *string) (ClinicPass, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE clinic_passes
		SET status = $2, reviewed_by = $3, reviewed_at = now(), rejection_reason = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING `+passColumns, id, status, reviewer, rejection)
	p, err := collectOne[ClinicPass]("review clinic pass", rows, err)
	return p, q.staleIfExists(ctx, err, "clinic_passes", id)
}

// UsePass consumes the newest approved pass of the student. The conditional
// update makes a second concurrent check-in see ErrNotFound.
func (q *Queries) UsePass(ctx context.Context, studentID uuid.UUID) (ClinicPass, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE clinic_passes SET status = 'used'
		WHERE id = (
			SELECT id FROM clinic_passes
			WHERE student_id = $1 AND status = 'approved'
			ORDER BY issued_at DESC LIMIT 1
			FOR UPDATE SKIP LOCKED)
		  AND status = 'approved'
		RETURNING `+passColumns, studentID)
	return collectOne[ClinicPass]("use clinic pass", rows, err)
}

func (q *Queries) AttachVisit(ctx context.Context, passID, visitID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `UPDATE clinic_passes SET clinic_visit_id = $2 WHERE id = $1`, passID, visitID)
	return wrap("attach visit", err)
}

type PassFilter struct {
	Status    string
	IssuedBy  *uuid.UUID
	StudentID *uuid.UUID
}

func (q *Queries) ListPasses(ctx context.Context, f PassFilter, page Page) ([]ClinicPass, error) {
	page = page.normalize()
	query := `SELECT ` + passColumns + ` FROM clinic_passes WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.IssuedBy != nil {
		args = append(args, *f.IssuedBy)
		query += fmt.Sprintf(" AND issued_by = $%d", len(args))
	}
	if f.StudentID != nil {
		args = append(args, *f.StudentID)
		query += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(" ORDER BY issued_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := q.db.Query(ctx, query, args...)
	return collect[ClinicPass]("list clinic passes", rows, err)
}

type NewVisit struct {
	StudentID   uuid.UUID
	PassID      *uuid.UUID
	CheckedInBy uuid.UUID
	Reason      string
}

func (q *Queries) InsertVisit(ctx context.Context, v NewVisit) (ClinicVisit, error) {
	rows, err := q.db.Query(ctx, `
		INSERT INTO clinic_visits (id, student_id, pass_id, checked_in_by, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+visitColumns,
		newID(), v.StudentID, v.PassID, v.CheckedInBy, v.Reason)
	return collectOne[ClinicVisit]("insert clinic visit", rows, err)
}

func (q *Queries) VisitByID(ctx context.Context, id uuid.UUID) (ClinicVisit, error) {
	rows, err := q.db.Query(ctx, `SELECT `+visitColumns+` FROM clinic_visits WHERE id = $1`, id)
	return collectOne[ClinicVisit]("clinic visit by id", rows, err)
}

// RecordFindings moves a checked-in visit to treated.
func (q *Queries) RecordFindings(ctx context.Context, id, treatedBy uuid.UUID, reason, notes, decision string) (ClinicVisit, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE clinic_visits
		SET status = 'treated', treated_by = $2, reason = $3, notes = $4, decision = $5
		WHERE id = $1 AND status = 'checked_in'
		RETURNING `+visitColumns, id, treatedBy, reason, notes, decision)
	v, err := collectOne[ClinicVisit]("record findings", rows, err)
	return v, q.staleIfExists(ctx, err, "clinic_visits", id)
}

// MarkParentNotified flags a treated visit whose decision is set.
func (q *Queries) MarkParentNotified(ctx context.Context, id uuid.UUID) (ClinicVisit, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE clinic_visits SET parent_notified = TRUE
		WHERE id = $1 AND status = 'treated' AND decision IS NOT NULL AND NOT parent_notified
		RETURNING `+visitColumns, id)
	v, err := collectOne[ClinicVisit]("mark parent notified", rows, err)
	return v, q.staleIfExists(ctx, err, "clinic_visits", id)
}

// ReleaseVisit discharges a treated visit once the parent has been notified.
func (q *Queries) ReleaseVisit(ctx context.Context, id uuid.UUID, outcome string) (ClinicVisit, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE clinic_visits SET status = 'released', outcome = $2, released_at = now()
		WHERE id = $1 AND status = 'treated' AND decision IS NOT NULL AND parent_notified
		RETURNING `+visitColumns, id, outcome)
	v, err := collectOne[ClinicVisit]("release visit", rows, err)
	return v, q.staleIfExists(ctx, err, "clinic_visits", id)
}

// VisitIssuer returns the teacher who issued the pass behind a visit, or
// uuid.Nil for walk-ins.
func (q *Queries) VisitIssuer(ctx context.Context, visitID uuid.UUID) (uuid.UUID, error) {
	var id *uuid.UUID
	err := q.db.QueryRow(ctx, `
		SELECT p.issued_by FROM clinic_visits v
		LEFT JOIN clinic_passes p ON p.id = v.pass_id
		WHERE v.id = $1`, visitID).Scan(&id)
	if err != nil {
		return uuid.Nil, wrap("visit issuer", err)
	}
	if id == nil {
		return uuid.Nil, nil
	}
	return *id, nil
}

// VisitQueue selects one of the clinic work queues.
type VisitQueue string

const (
	QueueAll             VisitQueue = ""
	QueuePendingFindings VisitQueue = "pending_findings"
	QueueParentApproval  VisitQueue = "parent_approval"
	QueueDischarge       VisitQueue = "discharge"
)

// clause is the WHERE fragment selecting the queue; Holds is its Go mirror.
func (vq VisitQueue) clause() string {
	switch vq {
	case QueuePendingFindings:
		return " AND v.status = 'checked_in'"
	case QueueParentApproval:
		return " AND v.status = 'treated' AND v.decision IS NOT NULL AND NOT v.parent_notified"
	case QueueDischarge:
		return " AND v.status = 'treated' AND v.decision IS NOT NULL AND v.parent_notified"
	}
	return ""
}

// Holds reports whether v belongs in the queue.
func (vq VisitQueue) Holds(v ClinicVisit) bool {
	treated := v.Status == VisitTreated && v.Decision != nil
	switch vq {
	case QueuePendingFindings:
		return v.Status == VisitCheckedIn
	case QueueParentApproval:
		return treated && !v.ParentNotified
	case QueueDischarge:
		return treated && v.ParentNotified
	}
	return true
}

type VisitFilter struct {
	Queue     VisitQueue
	IssuedBy  *uuid.UUID
	StudentID *uuid.UUID
}

func (q *Queries) ListVisits(ctx context.Context, f VisitFilter, page Page) ([]ClinicVisit, error) {
	page = page.normalize()
	query := `SELECT v.id, v.student_id, v.pass_id, v.checked_in_by, v.treated_by, v.visit_time, v.reason, v.notes,
		v.decision, v.parent_notified, v.status, v.outcome, v.released_at
		FROM clinic_visits v LEFT JOIN clinic_passes p ON p.id = v.pass_id WHERE 1=1`
	query += f.Queue.clause()
	args := []any{}
	if f.IssuedBy != nil {
		args = append(args, *f.IssuedBy)
		query += fmt.Sprintf(" AND p.issued_by = $%d", len(args))
	}
	if f.StudentID != nil {
		args = append(args, *f.StudentID)
		query += fmt.Sprintf(" AND v.student_id = $%d", len(args))
	}
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(" ORDER BY v.visit_time DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := q.db.Query(ctx, query, args...)
	return collect[ClinicVisit]("list clinic visits", rows, err)
}

// staleIfExists turns ErrNotFound from a guarded update into ErrStaleStatus
// when the row exists but was in another state.
func (q *Queries) staleIfExists(ctx context.Context, err error, table string, id uuid.UUID) error {
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	var exists bool
	if qerr := q.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table), id).Scan(&exists); qerr != nil {
		return wrap("check existence", qerr)
	}
	if exists {
		return ErrStaleStatus
	}
	return ErrNotFound
}
