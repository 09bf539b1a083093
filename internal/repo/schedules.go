package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const scheduleColumns = `id, class_id, subject_code, teacher_id, day_of_week, start_time, end_time, semester`
const subjectMarkColumns = `id, student_id, subject_code, date, status, remarks, recorded_by, updated_at`
const classColumns = `id, name, grade_level, strand, adviser_id`

// ErrSessionValidated is returned when a subject session of a day has
// already been validated.
var ErrSessionValidated = errors.New("session already validated")

const constraintValidationKey = "attendance_validations_pkey"

func (q *Queries) UpsertSubject(ctx context.Context, code, name string) (Subject, error) {
	rows, err := q.db.Query(ctx, `
		INSERT INTO subjects (code, name) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
		RETURNING code, name`, code, name)
	return collectOne[Subject]("upsert subject", rows, err)
}

func (q *Queries) ListSubjects(ctx context.Context) ([]Subject, error) {
	rows, err := q.db.Query(ctx, `SELECT code, name FROM subjects ORDER BY code`)
	return collect[Subject]("list subjects", rows, err)
}

func (q *Queries) ClassByID(ctx context.Context, id uuid.UUID) (Class, error) {
	rows, err := q.db.Query(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id)
	return collectOne[Class]("class by id", rows, err)
}

// ClassesByAdviser lists the homeroom classes of a teacher.
func (q *Queries) ClassesByAdviser(ctx context.Context, teacherID uuid.UUID) ([]Class, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+classColumns+` FROM classes WHERE adviser_id = $1 ORDER BY grade_level, name`, teacherID)
	return collect[Class]("classes by adviser", rows, err)
}

// ClassRoster returns every student of a class by name.
func (q *Queries) ClassRoster(ctx context.Context, classID uuid.UUID) ([]Student, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE class_id = $1 ORDER BY full_name`, classID)
	return collect[Student]("class roster", rows, err)
}

type NewSchedule struct {
	SubjectCode string
	TeacherID   *uuid.UUID
	DayOfWeek   string
	StartTime   string
	EndTime     string
}

// ReplaceSchedules swaps the weekly periods of a class (of one semester when
// semester is set) for in. Run it inside a transaction.
func (q *Queries) ReplaceSchedules(ctx context.Context, classID uuid.UUID, semester *string, in []NewSchedule) ([]ClassSchedule, error) {
	if _, err := q.db.Exec(ctx, `
		DELETE FROM class_schedules
		WHERE class_id = $1 AND ($2::text IS NULL OR semester = $2)`, classID, semester); err != nil {
		return nil, wrap("clear schedules", err)
	}
	out := make([]ClassSchedule, 0, len(in))
	for _, s := range in {
		rows, err := q.db.Query(ctx, `
			INSERT INTO class_schedules (id, class_id, subject_code, teacher_id, day_of_week, start_time, end_time, semester)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+scheduleColumns,
			newID(), classID, s.SubjectCode, s.TeacherID, s.DayOfWeek, s.StartTime, s.EndTime, semester)
		rec, err := collectOne[ClassSchedule]("insert schedule", rows, err)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (q *Queries) ScheduleByID(ctx context.Context, id uuid.UUID) (ClassSchedule, error) {
	rows, err := q.db.Query(ctx, `SELECT `+scheduleColumns+` FROM class_schedules WHERE id = $1`, id)
	return collectOne[ClassSchedule]("schedule by id", rows, err)
}

type ScheduleFilter struct {
	ClassID   *uuid.UUID
	TeacherID *uuid.UUID
	DayOfWeek string
}

func (q *Queries) ListSchedules(ctx context.Context, f ScheduleFilter) ([]ClassSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM class_schedules WHERE 1=1`
	args := []any{}
	if f.ClassID != nil {
		args = append(args, *f.ClassID)
		query += fmt.Sprintf(" AND class_id = $%d", len(args))
	}
	if f.TeacherID != nil {
		args = append(args, *f.TeacherID)
		query += fmt.Sprintf(" AND teacher_id = $%d", len(args))
	}
	if f.DayOfWeek != "" {
		args = append(args, f.DayOfWeek)
		query += fmt.Sprintf(" AND day_of_week = $%d", len(args))
	}
	query += ` ORDER BY array_position(ARRAY['mon','tue','wed','thu','fri','sat','sun'], day_of_week), start_time`

	rows, err := q.db.Query(ctx, query, args...)
	return collect[ClassSchedule]("list schedules", rows, err)
}

// SubjectMarks returns the marks of one subject and day for the given
// students.
func (q *Queries) SubjectMarks(ctx context.Context, subjectCode string, day time.Time, studentIDs []uuid.UUID) ([]SubjectAttendance, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	rows, err := q.db.Query(ctx, `
		SELECT `+subjectMarkColumns+` FROM subject_attendance
		WHERE subject_code = $1 AND date = $2 AND student_id = ANY($3::uuid[])`,
		subjectCode, day, idStrings(studentIDs))
	return collect[SubjectAttendance]("subject marks", rows, err)
}

type NewSubjectMark struct {
	StudentID uuid.UUID
	Status    string
	Remarks   string
}

// UpsertSubjectMarks writes one mark per student for subject and day. An
// existing mark of the same student, subject and day is overwritten.
func (q *Queries) UpsertSubjectMarks(ctx context.Context, subjectCode string, day time.Time, recordedBy uuid.UUID, marks []NewSubjectMark) ([]SubjectAttendance, error) {
	if len(marks) == 0 {
		return nil, nil
	}
	ids := make([]string, len(marks))
	students := make([]string, len(marks))
	statuses := make([]string, len(marks))
	remarks := make([]string, len(marks))
	for i, m := range marks {
		ids[i] = newID().String()
		students[i] = m.StudentID.String()
		statuses[i] = m.Status
		remarks[i] = m.Remarks
	}
	rows, err := q.db.Query(ctx, `
		INSERT INTO subject_attendance (id, student_id, subject_code, date, status, remarks, recorded_by)
		SELECT m.id, m.student_id, $5, $6, m.status, m.remarks, $7
		FROM unnest($1::uuid[], $2::uuid[], $3::text[], $4::text[]) AS m(id, student_id, status, remarks)
		ON CONFLICT ON CONSTRAINT subject_attendance_one_mark DO UPDATE
		SET status = EXCLUDED.status, remarks = EXCLUDED.remarks,
		    recorded_by = EXCLUDED.recorded_by, updated_at = now()
		RETURNING `+subjectMarkColumns,
		ids, students, statuses, remarks, subjectCode, day, recordedBy)
	return collect[SubjectAttendance]("upsert subject marks", rows, err)
}

// InClinicStudents returns which of the students have an unreleased clinic
// visit.
func (q *Queries) InClinicStudents(ctx context.Context, studentIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	rows, err := q.db.Query(ctx, `
		SELECT DISTINCT student_id FROM clinic_visits
		WHERE status <> 'released' AND student_id = ANY($1::uuid[])`, idStrings(studentIDs))
	if err != nil {
		return nil, wrap("in clinic students", err)
	}
	ids, err := pgxCollectIDs(rows)
	return ids, wrap("in clinic students", err)
}

// ExcusedStudents returns which of the students have an approved excuse
// letter for day.
func (q *Queries) ExcusedStudents(ctx context.Context, studentIDs []uuid.UUID, day time.Time) ([]uuid.UUID, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	rows, err := q.db.Query(ctx, `
		SELECT DISTINCT student_id FROM excuse_letters
		WHERE status = 'approved' AND absent_date = $2 AND student_id = ANY($1::uuid[])`,
		idStrings(studentIDs), day)
	if err != nil {
		return nil, wrap("excused students", err)
	}
	ids, err := pgxCollectIDs(rows)
	return ids, wrap("excused students", err)
}

// LatestAttendance returns the newest gate row of day per student.
func (q *Queries) LatestAttendance(ctx context.Context, studentIDs []uuid.UUID, day time.Time) ([]Attendance, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	rows, err := q.db.Query(ctx, `
		SELECT DISTINCT ON (student_id) `+attendanceColumns+`
		FROM attendance
		WHERE tap_date = $2 AND student_id = ANY($1::uuid[])
		ORDER BY student_id, tap_time DESC`, idStrings(studentIDs), day)
	return collect[Attendance]("latest attendance", rows, err)
}

func (q *Queries) SessionValidation(ctx context.Context, scheduleID uuid.UUID, day time.Time) (SessionValidation, error) {
	rows, err := q.db.Query(ctx, `
		SELECT schedule_id, attendance_date, validated_by, validated_at
		FROM attendance_validations WHERE schedule_id = $1 AND attendance_date = $2`, scheduleID, day)
	return collectOne[SessionValidation]("session validation", rows, err)
}

// InsertValidation locks a session. A second lock of the same session and
// day yields ErrSessionValidated.
func (q *Queries) InsertValidation(ctx context.Context, scheduleID uuid.UUID, day time.Time, by uuid.UUID) (SessionValidation, error) {
	rows, err := q.db.Query(ctx, `
		INSERT INTO attendance_validations (schedule_id, attendance_date, validated_by)
		VALUES ($1, $2, $3)
		RETURNING schedule_id, attendance_date, validated_by, validated_at`, scheduleID, day, by)
	v, err := collectOne[SessionValidation]("insert validation", rows, err)
	if errors.Is(err, ErrUniqueViolation) && constraintName(err) == constraintValidationKey {
		return SessionValidation{}, ErrSessionValidated
	}
	return v, err
}

// MarkSubjectClinic flags the student's subject marks of day as spent in the
// clinic.
func (q *Queries) MarkSubjectClinic(ctx context.Context, studentID uuid.UUID, day time.Time, remark string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE subject_attendance SET status = 'clinic', remarks = $3, updated_at = now()
		WHERE student_id = $1 AND date = $2`, studentID, day, remark)
	if err != nil {
		return 0, wrap("mark subject clinic", err)
	}
	return tag.RowsAffected(), nil
}

// SetClinicSubjectRemarks rewrites the remark of the student's clinic-marked
// subject rows of day.
func (q *Queries) SetClinicSubjectRemarks(ctx context.Context, studentID uuid.UUID, day time.Time, remark string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE subject_attendance SET remarks = $3, updated_at = now()
		WHERE student_id = $1 AND date = $2 AND status = 'clinic'`, studentID, day, remark)
	if err != nil {
		return 0, wrap("set clinic subject remarks", err)
	}
	return tag.RowsAffected(), nil
}

// MarkSubjectExcused converts the student's subject marks of day to
// excused_absent, leaving clinic rows alone.
func (q *Queries) MarkSubjectExcused(ctx context.Context, studentID uuid.UUID, day time.Time, remark string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE subject_attendance SET status = 'excused_absent', remarks = $3, updated_at = now()
		WHERE student_id = $1 AND date = $2 AND status NOT IN ('excused_absent', 'clinic')`,
		studentID, day, remark)
	if err != nil {
		return 0, wrap("mark subject excused", err)
	}
	return tag.RowsAffected(), nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
