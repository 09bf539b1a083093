package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
)

// Tx is the slice of repo.Queries the clinic pipeline runs.
type Tx interface {
	StudentByID(ctx context.Context, id uuid.UUID) (repo.Student, error)
	StudentByCode(ctx context.Context, code string) (repo.Student, error)
	ParentIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)
	AdviserID(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error)
	ActiveProfileIDsByRole(ctx context.Context, roles ...string) ([]uuid.UUID, error)
	SetStudentStatus(ctx context.Context, id uuid.UUID, expected, next string) error
	ForceStudentStatus(ctx context.Context, id uuid.UUID, status string) error

	InsertPass(ctx context.Context, studentID, issuedBy uuid.UUID, reason, notes string) (repo.ClinicPass, error)
	ReviewPass(ctx context.Context, id uuid.UUID, status string, reviewer uuid.UUID, rejection *string) (repo.ClinicPass, error)
	UsePass(ctx context.Context, studentID uuid.UUID) (repo.ClinicPass, error)
	AttachVisit(ctx context.Context, passID, visitID uuid.UUID) error
	ListPasses(ctx context.Context, f repo.PassFilter, page repo.Page) ([]repo.ClinicPass, error)

	InsertVisit(ctx context.Context, v repo.NewVisit) (repo.ClinicVisit, error)
	VisitByID(ctx context.Context, id uuid.UUID) (repo.ClinicVisit, error)
	RecordFindings(ctx context.Context, id, treatedBy uuid.UUID, reason, notes, decision string) (repo.ClinicVisit, error)
	MarkParentNotified(ctx context.Context, id uuid.UUID) (repo.ClinicVisit, error)
	ReleaseVisit(ctx context.Context, id uuid.UUID, outcome string) (repo.ClinicVisit, error)
	VisitIssuer(ctx context.Context, visitID uuid.UUID) (uuid.UUID, error)
	ListVisits(ctx context.Context, f repo.VisitFilter, page repo.Page) ([]repo.ClinicVisit, error)

	AppendRemarks(ctx context.Context, studentID uuid.UUID, day time.Time, suffix string) error
	MarkSubjectClinic(ctx context.Context, studentID uuid.UUID, day time.Time, remark string) (int64, error)
	SetClinicSubjectRemarks(ctx context.Context, studentID uuid.UUID, day time.Time, remark string) (int64, error)

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
