package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
)

// Tx is the slice of repo.Queries the gate pipeline runs.
type Tx interface {
	StudentByCode(ctx context.Context, code string) (repo.Student, error)
	IsGatekeeper(ctx context.Context, teacherID uuid.UUID) (bool, error)
	HasOpenEntry(ctx context.Context, studentID uuid.UUID, day time.Time) (bool, error)
	InsertAttendance(ctx context.Context, a repo.NewAttendance) (repo.Attendance, error)
	SetStudentStatus(ctx context.Context, id uuid.UUID, expected, next string) error
	ForceStudentStatus(ctx context.Context, id uuid.UUID, status string) error
	ParentIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)
	InsertNotifications(ctx context.Context, in []repo.NewNotification) ([]repo.Notification, error)
	InsertAudit(ctx context.Context, a repo.NewAuditLog) error
	ListAttendance(ctx context.Context, f repo.AttendanceFilter, page repo.Page) ([]repo.Attendance, error)
	DerivedStatus(ctx context.Context, studentID uuid.UUID, day time.Time) (string, error)
}

type Store interface {
	Tx
	InTx(ctx context.Context, fn func(q Tx) error) error
}

type pgStore struct{ *repo.Store }

func (s pgStore) InTx(ctx context.Context, fn func(q Tx) error) error {
	return s.Store.InTx(ctx, func(q *repo.Queries) error { return fn(q) })
}
