package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const calendarColumns = `id, title, type, start_date, end_date, grade_scope, notes, created_by, created_at`

// GradeScopeAll applies a calendar entry to every grade.
const GradeScopeAll = "all"

type CalendarInput struct {
	Title      string
	Type       string
	StartDate  time.Time
	EndDate    time.Time
	GradeScope string
	Notes      string
}

func (q *Queries) CreateCalendarEntry(ctx context.Context, in CalendarInput, createdBy uuid.UUID) (CalendarEntry, error) {
	rows, err := q.db.Query(ctx, `
		INSERT INTO school_calendar (id, title, type, start_date, end_date, grade_scope, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+calendarColumns,
		newID(), in.Title, in.Type, in.StartDate, in.EndDate, in.GradeScope, in.Notes, createdBy)
	return collectOne[CalendarEntry]("insert calendar entry", rows, err)
}

func (q *Queries) UpdateCalendarEntry(ctx context.Context, id uuid.UUID, in CalendarInput) (CalendarEntry, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE school_calendar
		SET title = $2, type = $3, start_date = $4, end_date = $5, grade_scope = $6, notes = $7
		WHERE id = $1
		RETURNING `+calendarColumns,
		id, in.Title, in.Type, in.StartDate, in.EndDate, in.GradeScope, in.Notes)
	return collectOne[CalendarEntry]("update calendar entry", rows, err)
}

func (q *Queries) DeleteCalendarEntry(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM school_calendar WHERE id = $1`, id)
	if err != nil {
		return wrap("delete calendar entry", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CalendarEntriesOverlapping lists entries intersecting [from, to].
func (q *Queries) CalendarEntriesOverlapping(ctx context.Context, from, to time.Time) ([]CalendarEntry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+calendarColumns+` FROM school_calendar
		WHERE start_date <= $2 AND end_date >= $1
		ORDER BY start_date, created_at`, from, to)
	return collect[CalendarEntry]("list calendar", rows, err)
}
