package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
)

// Actions written to audit_logs.action.
const (
	ActionGateEntry             = "GATE_ENTRY"
	ActionGateExit              = "GATE_EXIT"
	ActionClinicPassIssued      = "CLINIC_PASS_ISSUED"
	ActionClinicPassApproved    = "CLINIC_PASS_APPROVED"
	ActionClinicPassRejected    = "CLINIC_PASS_REJECTED"
	ActionClinicCheckin         = "CLINIC_CHECKIN"
	ActionClinicFindingsUpdated = "CLINIC_FINDINGS_UPDATED"
	ActionParentNotified        = "PARENT_NOTIFIED_FROM_CLINIC"
	ActionClinicCheckout        = "CLINIC_CHECKOUT"
	ActionExcuseDecided         = "EXCUSE_DECIDED"
	ActionUserCreated           = "USER_CREATED"
	ActionUserUpdated           = "USER_UPDATED"
	ActionCalendarChanged       = "CALENDAR_CHANGED"
	ActionSettingsUpdated       = "SETTINGS_UPDATED"
	ActionAnnouncementPosted    = "ANNOUNCEMENT_POSTED"
	ActionSchedulesReplaced     = "CLASS_SCHEDULES_REPLACED"
	ActionSubjectMarked         = "SUBJECT_ATTENDANCE_MARKED"
	ActionSessionValidated      = "VALIDATE_SESSION"
	ActionStudentTransferred    = "TRANSFER_STUDENT"
)

var ErrInvalidRange = errors.New("from must not be after to")

// Entry builds an audit row for actor on target.
func Entry(actor uuid.UUID, action, table string, target uuid.UUID, details any) repo.NewAuditLog {
	a := repo.NewAuditLog{Action: action, TargetTable: table, Details: details}
	if actor != uuid.Nil {
		a.ActorID = &actor
	}
	if target != uuid.Nil {
		a.TargetID = &target
	}
	return a
}

type Filter struct {
	ActorID     *uuid.UUID
	Action      string
	TargetTable string
	From        *time.Time
	To          *time.Time
}

type Service interface {
	List(ctx context.Context, f Filter, page repo.Page) ([]repo.AuditLog, error)
}

type auditService struct {
	store *repo.Store
}

func New(store *repo.Store) Service {
	return &auditService{store: store}
}

func (s *auditService) List(ctx context.Context, f Filter, page repo.Page) ([]repo.AuditLog, error) {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, ErrInvalidRange
	}
	rows, err := s.store.ListAudit(ctx, repo.AuditFilter(f), page)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	if rows == nil {
		rows = []repo.AuditLog{}
	}
	return rows, nil
}
