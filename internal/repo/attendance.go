package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `id, student_id, status, entry_type, session, method, tap_time, tap_date, remarks, recorded_by, created_at`

// ErrOpenEntryExists is returned when the one-entry-per-day index rejects
// an insert.
var ErrOpenEntryExists = errors.New("open entry already recorded for this day")

const constraintOneEntryPerDay = "attendance_one_entry_per_day"

type NewAttendance struct {
	StudentID  uuid.UUID
	Status     string
	EntryType  string
	Session    string
	Method     string
	TapTime    time.Time
	TapDate    time.Time
	Remarks    string
	RecordedBy *uuid.UUID
}

func (q *Queries) InsertAttendance(ctx context.Context, a NewAttendance) (Attendance, error) {
	rows, err := q.db.Query(ctx, `
		INSERT INTO attendance (id, student_id, status, entry_type, session, method, tap_time, tap_date, remarks, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+attendanceColumns,
		newID(), a.StudentID, a.Status, a.EntryType, a.Session, a.Method, a.TapTime, a.TapDate, a.Remarks, a.RecordedBy)
	rec, err := collectOne[Attendance]("insert attendance", rows, err)
	if errors.Is(err, ErrUniqueViolation) && constraintName(err) == constraintOneEntryPerDay {
		return Attendance{}, ErrOpenEntryExists
	}
	return rec, err
}

// HasOpenEntry reports whether the student already has a same-day entry that
// is not a morning absence. An entry later excused still counts.
func (q *Queries) HasOpenEntry(ctx context.Context, studentID uuid.UUID, day time.Time) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance
			WHERE student_id = $1 AND tap_date = $2
			  AND entry_type = 'entry' AND status <> 'morning_absent')`,
		studentID, day).Scan(&ok)
	return ok, wrap("has open entry", err)
}

// AppendRemarks appends suffix to every attendance row of the student on day.
func (q *Queries) AppendRemarks(ctx context.Context, studentID uuid.UUID, day time.Time, suffix string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE attendance
		SET remarks = CASE WHEN remarks = '' THEN $3 ELSE remarks || ' | ' || $3 END
		WHERE student_id = $1 AND tap_date = $2`, studentID, day, suffix)
	return wrap("append remarks", err)
}

// MarkExcused converts the student's attendance rows of day to excused and
// returns how many rows changed. An excused entry counts as the day's open
// entry, so morning-absence entries convert only when the day has no counted
// entry yet, and then only the earliest of them.
func (q *Queries) MarkExcused(ctx context.Context, studentID uuid.UUID, day time.Time, remark string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE attendance a
		SET status = 'excused',
		    remarks = CASE WHEN a.remarks = '' THEN $3 ELSE a.remarks || ' | ' || $3 END
		WHERE a.student_id = $1 AND a.tap_date = $2 AND a.status <> 'excused'
		  AND (a.entry_type <> 'entry' OR a.status <> 'morning_absent' OR a.id = (
		        SELECT m.id FROM attendance m
		        WHERE m.student_id = $1 AND m.tap_date = $2 AND m.entry_type = 'entry'
		          AND NOT EXISTS (
		                SELECT 1 FROM attendance c
		                WHERE c.student_id = $1 AND c.tap_date = $2
		                  AND c.entry_type = 'entry' AND c.status <> 'morning_absent')
		        ORDER BY m.tap_time LIMIT 1))`, studentID, day, remark)
	if err != nil {
		return 0, wrap("mark excused", err)
	}
	return tag.RowsAffected(), nil
}

type AttendanceFilter struct {
	StudentID *uuid.UUID
	ClassID   *uuid.UUID
	ParentID  *uuid.UUID
	From      *time.Time
	To        *time.Time
	Status    string
}

func (q *Queries) ListAttendance(ctx context.Context, f AttendanceFilter, page Page) ([]Attendance, error) {
	page = page.normalize()
	query := `SELECT a.id, a.student_id, a.status, a.entry_type, a.session, a.method, a.tap_time, a.tap_date, a.remarks, a.recorded_by, a.created_at
		FROM attendance a JOIN students s ON s.id = a.student_id WHERE 1=1`
	args := []any{}
	if f.StudentID != nil {
		args = append(args, *f.StudentID)
		query += fmt.Sprintf(" AND a.student_id = $%d", len(args))
	}
	if f.ClassID != nil {
		args = append(args, *f.ClassID)
		query += fmt.Sprintf(" AND s.class_id = $%d", len(args))
	}
	if f.ParentID != nil {
		args = append(args, *f.ParentID)
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM parent_students ps WHERE ps.student_id = a.student_id AND ps.parent_id = $%d)", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND a.tap_date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND a.tap_date <= $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(" ORDER BY a.tap_time DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := q.db.Query(ctx, query, args...)
	return collect[Attendance]("list attendance", rows, err)
}

// DerivedStatus recomputes what current_status should be from the
// authoritative rows: an unreleased clinic visit wins, otherwise the latest
// attendance row of day decides.
func (q *Queries) DerivedStatus(ctx context.Context, studentID uuid.UUID, day time.Time) (string, error) {
	var inClinic bool
	if err := q.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM clinic_visits WHERE student_id = $1 AND status <> 'released')`,
		studentID).Scan(&inClinic); err != nil {
		return "", wrap("derive status", err)
	}
	if inClinic {
		return StudentInClinic, nil
	}

	var entryType string
	var sentHome bool
	err := q.db.QueryRow(ctx, `
		SELECT a.entry_type,
		       EXISTS (SELECT 1 FROM clinic_visits v
		               WHERE v.student_id = a.student_id AND v.outcome = 'sent_home'
		                 AND v.released_at >= a.tap_time)
		FROM attendance a
		WHERE a.student_id = $1 AND a.tap_date = $2
		ORDER BY a.tap_time DESC LIMIT 1`, studentID, day).Scan(&entryType, &sentHome)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StudentOut, nil
		}
		return "", wrap("derive status", err)
	}
	switch {
	case sentHome:
		return StudentSentHome, nil
	case entryType == EntryTypeEntry:
		return StudentPresent, nil
	default:
		return StudentOut, nil
	}
}
