package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const studentColumns = `id, student_code, lrn, full_name, grade_level, strand, class_id, photo_path, current_status, created_at, updated_at`

type NewStudent struct {
	StudentCode string
	LRN         string
	FullName    string
	GradeLevel  string
	Strand      *string
	ClassID     *uuid.UUID
}

// CreateStudent inserts a student. A colliding student_code surfaces as
// ErrUniqueViolation so the caller can regenerate the code.
func (q *Queries) CreateStudent(ctx context.Context, s NewStudent) (Student, error) {
	rows, err := q.db.Query(ctx, `
		INSERT INTO students (id, student_code, lrn, full_name, grade_level, strand, class_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+studentColumns,
		newID(), s.StudentCode, s.LRN, s.FullName, s.GradeLevel, s.Strand, s.ClassID)
	return collectOne[Student]("insert student", rows, err)
}

func (q *Queries) StudentByID(ctx context.Context, id uuid.UUID) (Student, error) {
	rows, err := q.db.Query(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	return collectOne[Student]("student by id", rows, err)
}

func (q *Queries) StudentByCode(ctx context.Context, code string) (Student, error) {
	rows, err := q.db.Query(ctx, `SELECT `+studentColumns+` FROM students WHERE student_code = $1`, code)
	return collectOne[Student]("student by code", rows, err)
}

type StudentFilter struct {
	ClassID  *uuid.UUID
	ParentID *uuid.UUID
	Search   string
}

func (q *Queries) ListStudents(ctx context.Context, f StudentFilter, page Page) ([]Student, error) {
	page = page.normalize()
	query := `SELECT ` + studentColumns + ` FROM students s WHERE 1=1`
	args := []any{}
	if f.ClassID != nil {
		args = append(args, *f.ClassID)
		query += fmt.Sprintf(" AND s.class_id = $%d", len(args))
	}
	if f.ParentID != nil {
		args = append(args, *f.ParentID)
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM parent_students ps WHERE ps.student_id = s.id AND ps.parent_id = $%d)", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND (s.full_name ILIKE $%d OR s.student_code ILIKE $%d)", len(args), len(args))
	}
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(" ORDER BY s.full_name LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := q.db.Query(ctx, query, args...)
	return collect[Student]("list students", rows, err)
}

func (q *Queries) SetStudentPhoto(ctx context.Context, id uuid.UUID, path string) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE students SET photo_path = $2, updated_at = now() WHERE id = $1`, id, path)
	if err != nil {
		return wrap("set student photo", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStudentStatus moves current_status from expected to next. Zero rows
// affected means another writer got there first.
func (q *Queries) SetStudentStatus(ctx context.Context, id uuid.UUID, expected, next string) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE students SET current_status = $3, updated_at = now()
		WHERE id = $1 AND current_status = $2`, id, expected, next)
	if err != nil {
		return wrap("set student status", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

// ForceStudentStatus overwrites current_status without a guard.
func (q *Queries) ForceStudentStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE students SET current_status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return wrap("force student status", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) LinkParent(ctx context.Context, parentID, studentID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO parent_students (parent_id, student_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, parentID, studentID)
	return wrap("link parent", err)
}

func (q *Queries) UnlinkParent(ctx context.Context, parentID, studentID uuid.UUID) error {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM parent_students WHERE parent_id = $1 AND student_id = $2`, parentID, studentID)
	if err != nil {
		return wrap("unlink parent", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) ParentIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, `
		SELECT ps.parent_id FROM parent_students ps
		JOIN profiles p ON p.id = ps.parent_id
		WHERE ps.student_id = $1 AND p.is_active`, studentID)
	if err != nil {
		return nil, wrap("parent ids", err)
	}
	ids, err := pgxCollectIDs(rows)
	if err != nil {
		return nil, wrap("parent ids", err)
	}
	return ids, nil
}

func (q *Queries) IsParentOf(ctx context.Context, parentID, studentID uuid.UUID) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM parent_students WHERE parent_id = $1 AND student_id = $2)`,
		parentID, studentID).Scan(&ok)
	return ok, wrap("is parent of", err)
}

// AdviserID returns the homeroom adviser of the student's class, or uuid.Nil.
func (q *Queries) AdviserID(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	var id *uuid.UUID
	err := q.db.QueryRow(ctx, `
		SELECT c.adviser_id FROM students s
		LEFT JOIN classes c ON c.id = s.class_id
		WHERE s.id = $1`, studentID).Scan(&id)
	if err != nil {
		return uuid.Nil, wrap("adviser id", err)
	}
	if id == nil {
		return uuid.Nil, nil
	}
	return *id, nil
}

// IsAdviserOf reports whether teacherID advises the student's class.
func (q *Queries) IsAdviserOf(ctx context.Context, teacherID, studentID uuid.UUID) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM students s JOIN classes c ON c.id = s.class_id
			WHERE s.id = $1 AND c.adviser_id = $2)`, studentID, teacherID).Scan(&ok)
	return ok, wrap("is adviser of", err)
}

type NewClass struct {
	Name       string
	GradeLevel string
	Strand     *string
	AdviserID  *uuid.UUID
}

func (q *Queries) CreateClass(ctx context.Context, c NewClass) (Class, error) {
	rows, err := q.db.Query(ctx, `
		INSERT INTO classes (id, name, grade_level, strand, adviser_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, grade_level, strand, adviser_id`,
		newID(), c.Name, c.GradeLevel, c.Strand, c.AdviserID)
	return collectOne[Class]("insert class", rows, err)
}

func (q *Queries) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, name, grade_level, strand, adviser_id FROM classes ORDER BY grade_level, name`)
	return collect[Class]("list classes", rows, err)
}

// MoveStudent assigns the student to class and takes over its grade level
// and strand.
func (q *Queries) MoveStudent(ctx context.Context, studentID uuid.UUID, class Class) (Student, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE students SET class_id = $2, grade_level = $3, strand = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+studentColumns, studentID, class.ID, class.GradeLevel, class.Strand)
	return collectOne[Student]("move student", rows, err)
}
