package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const excuseColumns = `id, parent_id, student_id, absent_date, reason, status, attachment_path, attachment_name, teacher_comment, reviewed_by, reviewed_at, created_at`

type NewExcuse struct {
	ParentID       uuid.UUID
	StudentID      uuid.UUID
	AbsentDate     time.Time
	Reason         string
	AttachmentPath *string
	AttachmentName *string
}

func (q *Queries) InsertExcuse(ctx context.Context, e NewExcuse) (ExcuseLetter, error) {
	rows, err := q.db.Query(ctx, `
		INSERT INTO excuse_letters (id, parent_id, student_id, absent_date, reason, attachment_path, attachment_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+excuseColumns,
		newID(), e.ParentID, e.StudentID, e.AbsentDate, e.Reason, e.AttachmentPath, e.AttachmentName)
	return collectOne[ExcuseLetter]("insert excuse letter", rows, err)
}

func (q *Queries) ExcuseByID(ctx context.Context, id uuid.UUID) (ExcuseLetter, error) {
	rows, err := q.db.Query(ctx, `SELECT `+excuseColumns+` FROM excuse_letters WHERE id = $1`, id)
	return collectOne[ExcuseLetter]("excuse letter by id", rows, err)
}

// DecideExcuse records the teacher decision on a pending letter.
func (q *Queries) DecideExcuse(ctx context.Context, id uuid.UUID, status string, reviewer uuid.UUID, comment *string) (ExcuseLetter, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE excuse_letters
		SET status = $2, reviewed_by = $3, teacher_comment = $4, reviewed_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+excuseColumns, id, status, reviewer, comment)
	e, err := collectOne[ExcuseLetter]("decide excuse letter", rows, err)
	return e, q.staleIfExists(ctx, err, "excuse_letters", id)
}

type ExcuseFilter struct {
	ParentID  *uuid.UUID
	AdviserID *uuid.UUID
	StudentID *uuid.UUID
	Status    string
}

func (q *Queries) ListExcuses(ctx context.Context, f ExcuseFilter, page Page) ([]ExcuseLetter, error) {
	page = page.normalize()
	query := `SELECT e.id, e.parent_id, e.student_id, e.absent_date, e.reason, e.status, e.attachment_path,
		e.attachment_name, e.teacher_comment, e.reviewed_by, e.reviewed_at, e.created_at
		FROM excuse_letters e
		JOIN students s ON s.id = e.student_id
		LEFT JOIN classes c ON c.id = s.class_id
		WHERE 1=1`
	args := []any{}
	if f.ParentID != nil {
		args = append(args, *f.ParentID)
		query += fmt.Sprintf(" AND e.parent_id = $%d", len(args))
	}
	if f.AdviserID != nil {
		args = append(args, *f.AdviserID)
		query += fmt.Sprintf(" AND c.adviser_id = $%d", len(args))
	}
	if f.StudentID != nil {
		args = append(args, *f.StudentID)
		query += fmt.Sprintf(" AND e.student_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND e.status = $%d", len(args))
	}
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(" ORDER BY e.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := q.db.Query(ctx, query, args...)
	return collect[ExcuseLetter]("list excuse letters", rows, err)
}
