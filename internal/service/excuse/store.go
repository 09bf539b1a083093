package excuse

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
)

// Tx is the slice of repo.Queries the excuse workflow runs.
type Tx interface {
	StudentByID(ctx context.Context, id uuid.UUID) (repo.Student, error)
	IsParentOf(ctx context.Context, parentID, studentID uuid.UUID) (bool, error)
	IsAdviserOf(ctx context.Context, teacherID, studentID uuid.UUID) (bool, error)
	AdviserID(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error)
	InsertExcuse(ctx context.Context, e repo.NewExcuse) (repo.ExcuseLetter, error)
	ExcuseByID(ctx context.Context, id uuid.UUID) (repo.ExcuseLetter, error)
	DecideExcuse(ctx context.Context, id uuid.UUID, status string, reviewer uuid.UUID, comment *string) (repo.ExcuseLetter, error)
	ListExcuses(ctx context.Context, f repo.ExcuseFilter, page repo.Page) ([]repo.ExcuseLetter, error)
	MarkExcused(ctx context.Context, studentID uuid.UUID, day time.Time, remark string) (int64, error)
	MarkSubjectExcused(ctx context.Context, studentID uuid.UUID, day time.Time, remark string) (int64, error)
	InsertNotifications(ctx context.Context, in []repo.NewNotification) ([]repo.Notification, error)
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
