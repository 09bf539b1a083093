package roster

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
)

// Tx is the slice of repo.Queries the roster service runs, inside or
// outside a transaction.
type Tx interface {
	UpsertSubject(ctx context.Context, code, name string) (repo.Subject, error)
	ListSubjects(ctx context.Context) ([]repo.Subject, error)
	ClassByID(ctx context.Context, id uuid.UUID) (repo.Class, error)
	ClassesByAdviser(ctx context.Context, teacherID uuid.UUID) ([]repo.Class, error)
	ClassRoster(ctx context.Context, classID uuid.UUID) ([]repo.Student, error)
	ReplaceSchedules(ctx context.Context, classID uuid.UUID, semester *string, in []repo.NewSchedule) ([]repo.ClassSchedule, error)
	ScheduleByID(ctx context.Context, id uuid.UUID) (repo.ClassSchedule, error)
	ListSchedules(ctx context.Context, f repo.ScheduleFilter) ([]repo.ClassSchedule, error)
	SubjectMarks(ctx context.Context, subjectCode string, day time.Time, studentIDs []uuid.UUID) ([]repo.SubjectAttendance, error)
	UpsertSubjectMarks(ctx context.Context, subjectCode string, day time.Time, recordedBy uuid.UUID, marks []repo.NewSubjectMark) ([]repo.SubjectAttendance, error)
	InClinicStudents(ctx context.Context, studentIDs []uuid.UUID) ([]uuid.UUID, error)
	ExcusedStudents(ctx context.Context, studentIDs []uuid.UUID, day time.Time) ([]uuid.UUID, error)
	LatestAttendance(ctx context.Context, studentIDs []uuid.UUID, day time.Time) ([]repo.Attendance, error)
	SessionValidation(ctx context.Context, scheduleID uuid.UUID, day time.Time) (repo.SessionValidation, error)
	InsertValidation(ctx context.Context, scheduleID uuid.UUID, day time.Time, by uuid.UUID) (repo.SessionValidation, error)
	InsertAudit(ctx context.Context, a repo.NewAuditLog) error
}

type Store interface {
	Tx
	InTx(ctx context.Context, fn func(q Tx) error) error
}

type pgStore struct{ *repo.Store }

func (s pgStore) InTx(ctx context.Context, fn func(q Tx) error) error {
	return s.Store.InTx(ctx, func(q *repo.Queries) error { return fn(q) })
}
