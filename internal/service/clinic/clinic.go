package clinic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/events"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/audit"
	"github.com/educare/track_backend/internal/service/calendar"
	"github.com/educare/track_backend/internal/service/notification"
	"github.com/educare/track_backend/pkg/observability"
	"github.com/educare/track_backend/pkg/studentid"
)

// Sealer encrypts visit notes at rest. *crypto.Box satisfies it.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(encoded string) (string, error)
}

type plainSealer struct{}

func (plainSealer) Seal(s string) (string, error) { return s, nil }
func (plainSealer) Open(s string) (string, error) { return s, nil }

var decisions = []string{repo.DecisionReturnToClass, repo.DecisionRestAtClinic, repo.DecisionSendHome}

// OutcomeFor maps a findings decision to the discharge outcome and the
// student's status after leaving the clinic.
func OutcomeFor(decision string) (outcome, studentStatus string) {
	if decision == repo.DecisionSendHome {
		return repo.OutcomeSentHome, repo.StudentSentHome
	}
	return repo.OutcomeReturned, repo.StudentOut
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type IssueRequest struct {
	StudentID uuid.UUID
	Reason    string
	Notes     string
}

type FindingsRequest struct {
	Reason   string
	Notes    string
	Decision string
}

func (r FindingsRequest) normalize() (FindingsRequest, error) {
	r.Reason = strings.TrimSpace(r.Reason)
	r.Notes = strings.TrimSpace(r.Notes)
	r.Decision = strings.ToLower(strings.TrimSpace(r.Decision))
	if !slices.Contains(decisions, r.Decision) {
		return r, ErrInvalidDecision
	}
	return r, nil
}

// Caller identifies who performs a clinic step.
type Caller struct {
	ID      uuid.UUID
	IsAdmin bool
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	IssuePass(ctx context.Context, actor uuid.UUID, req IssueRequest) (*repo.ClinicPass, error)
	ApprovePass(ctx context.Context, actor, passID uuid.UUID) (*repo.ClinicPass, error)
	RejectPass(ctx context.Context, actor, passID uuid.UUID, reason string) (*repo.ClinicPass, error)
	ListPasses(ctx context.Context, f repo.PassFilter, page repo.Page) ([]repo.ClinicPass, error)

	// CheckIn admits the student behind a scanned QR code by consuming the
	// newest approved pass.
	CheckIn(ctx context.Context, actor uuid.UUID, code string) (*repo.ClinicVisit, error)
	RecordFindings(ctx context.Context, actor, visitID uuid.UUID, req FindingsRequest) (*repo.ClinicVisit, error)
	NotifyParent(ctx context.Context, caller Caller, visitID uuid.UUID) (*repo.ClinicVisit, error)
	Discharge(ctx context.Context, actor, visitID uuid.UUID) (*repo.ClinicVisit, error)
	GetVisit(ctx context.Context, id uuid.UUID) (*repo.ClinicVisit, error)
	ListVisits(ctx context.Context, f repo.VisitFilter, page repo.Page) ([]repo.ClinicVisit, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type clinicService struct {
	store   Store
	sealer  Sealer
	bus     *events.Bus
	metrics *observability.Metrics
	loc     *time.Location
}

// New wires the clinic pipeline. A nil sealer stores notes unencrypted.
func New(store *repo.Store, sealer Sealer, bus *events.Bus, metrics *observability.Metrics, cfg *config.Config) (Service, error) {
	loc, err := calendar.LoadLocation(cfg.School.Timezone)
	if err != nil {
		return nil, fmt.Errorf("clinic service: %w", err)
	}
	if sealer == nil {
		slog.Warn("clinic: no encryption key configured, visit notes are stored in plain text")
		sealer = plainSealer{}
	}
	return newService(pgStore{store}, sealer, bus, metrics, loc), nil
}

func newService(store Store, sealer Sealer, bus *events.Bus, metrics *observability.Metrics, loc *time.Location) *clinicService {
	return &clinicService{store: store, sealer: sealer, bus: bus, metrics: metrics, loc: loc}
}

func studentObject(st repo.Student, ref uuid.UUID) notification.Object {
	return notification.Object{StudentID: st.ID, FullName: st.FullName, RefID: &ref}
}

func (s *clinicService) finish(ctx context.Context, step string, notified []repo.Notification) {
	s.bus.PublishNotifications(ctx, notified)
	s.metrics.ClinicStep(ctx, step)
}

// ---------------------------------------------------------------------------
// Passes
// ---------------------------------------------------------------------------

func (s *clinicService) IssuePass(ctx context.Context, actor uuid.UUID, req IssueRequest) (*repo.ClinicPass, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return nil, ErrReasonRequired
	}
	st, err := s.store.StudentByID(ctx, req.StudentID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}

	var (
		pass     repo.ClinicPass
		notified []repo.Notification
	)
	err = s.store.InTx(ctx, func(q Tx) error {
		var err error
		if pass, err = q.InsertPass(ctx, st.ID, actor, req.Reason, strings.TrimSpace(req.Notes)); err != nil {
			return err
		}
		staff, err := q.ActiveProfileIDsByRole(ctx, repo.RoleClinic)
		if err != nil {
			return err
		}
		obj := studentObject(st, pass.ID)
		obj.Remarks = pass.Reason
		if notified, err = q.InsertNotifications(ctx,
			notification.Fanout(&actor, notification.VerbClinicPassIssued, obj, staff)); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionClinicPassIssued, "clinic_passes", pass.ID,
			map[string]any{"student_name": st.FullName, "reason": pass.Reason}))
	})
	if err != nil {
		return nil, fmt.Errorf("issue clinic pass: %w", err)
	}
	s.finish(ctx, "pass_issued", notified)
	return &pass, nil
}

func (s *clinicService) ApprovePass(ctx context.Context, actor, passID uuid.UUID) (*repo.ClinicPass, error) {
	return s.reviewPass(ctx, actor, passID, repo.PassApproved, nil)
}

func (s *clinicService) RejectPass(ctx context.Context, actor, passID uuid.UUID, reason string) (*repo.ClinicPass, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectionRequired
	}
	return s.reviewPass(ctx, actor, passID, repo.PassRejected, &reason)
}

func (s *clinicService) reviewPass(ctx context.Context, actor, passID uuid.UUID, status string, rejection *string) (*repo.ClinicPass, error) {
	verb, action, step := notification.VerbClinicPassApproved, audit.ActionClinicPassApproved, "pass_approved"
	if status == repo.PassRejected {
		verb, action, step = notification.VerbClinicPassRejected, audit.ActionClinicPassRejected, "pass_rejected"
	}

	var (
		pass     repo.ClinicPass
		notified []repo.Notification
	)
	err := s.store.InTx(ctx, func(q Tx) error {
		var err error
		if pass, err = q.ReviewPass(ctx, passID, status, actor, rejection); err != nil {
			return err
		}
		st, err := q.StudentByID(ctx, pass.StudentID)
		if err != nil {
			return err
		}
		parents, err := q.ParentIDs(ctx, st.ID)
		if err != nil {
			return err
		}
		obj := studentObject(st, pass.ID)
		obj.Status = status
		if rejection != nil {
			obj.Remarks = *rejection
		}
		var issuer []uuid.UUID
		if pass.IssuedBy != nil {
			issuer = []uuid.UUID{*pass.IssuedBy}
		}
		if notified, err = q.InsertNotifications(ctx, notification.Fanout(&actor, verb, obj, issuer, parents)); err != nil {
			return err
		}
		details := map[string]any{"student_name": st.FullName}
		if rejection != nil {
			details["rejection_reason"] = *rejection
		}
		return q.InsertAudit(ctx, audit.Entry(actor, action, "clinic_passes", pass.ID, details))
	})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, ErrPassNotFound
	case errors.Is(err, repo.ErrStaleStatus):
		return nil, ErrPassNotPending
	case err != nil:
		return nil, fmt.Errorf("review clinic pass: %w", err)
	}
	s.finish(ctx, step, notified)
	return &pass, nil
}

func (s *clinicService) ListPasses(ctx context.Context, f repo.PassFilter, page repo.Page) ([]repo.ClinicPass, error) {
	passes, err := s.store.ListPasses(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("list clinic passes: %w", err)
	}
	if passes == nil {
		passes = []repo.ClinicPass{}
	}
	return passes, nil
}

// ---------------------------------------------------------------------------
// Visits
// ---------------------------------------------------------------------------

func (s *clinicService) CheckIn(ctx context.Context, actor uuid.UUID, code string) (*repo.ClinicVisit, error) {
	code = studentid.Normalize(code)
	if !studentid.Valid(code) {
		return nil, ErrInvalidCode
	}
	st, err := s.store.StudentByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}

	var (
		visit    repo.ClinicVisit
		notified []repo.Notification
	)
	err = s.store.InTx(ctx, func(q Tx) error {
		pass, err := q.UsePass(ctx, st.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNoApprovedPass
		}
		if err != nil {
			return err
		}
		if visit, err = q.InsertVisit(ctx, repo.NewVisit{
			StudentID:   st.ID,
			PassID:      &pass.ID,
			CheckedInBy: actor,
			Reason:      pass.Reason,
		}); err != nil {
			return err
		}
		if err := q.AttachVisit(ctx, pass.ID, visit.ID); err != nil {
			return err
		}
		if err := q.SetStudentStatus(ctx, st.ID, st.CurrentStatus, repo.StudentInClinic); err != nil {
			return err
		}
		day := calendar.Day(visit.VisitTime, s.loc)
		if err := q.AppendRemarks(ctx, st.ID, day, "Clinic Visit "+visit.ID.String()); err != nil {
			return err
		}
		if _, err := q.MarkSubjectClinic(ctx, st.ID, day, "Clinic Visit ID: "+visit.ID.String()); err != nil {
			return err
		}

		adviser, err := q.AdviserID(ctx, st.ID)
		if err != nil {
			return err
		}
		var issuer uuid.UUID
		if pass.IssuedBy != nil {
			issuer = *pass.IssuedBy
		}
		if notified, err = q.InsertNotifications(ctx, notification.Fanout(&actor, notification.VerbStudentInClinic,
			studentObject(st, visit.ID), []uuid.UUID{issuer, adviser})); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionClinicCheckin, "clinic_visits", visit.ID,
			map[string]any{"student_name": st.FullName, "pass_id": pass.ID}))
	})
	switch {
	case errors.Is(err, ErrNoApprovedPass):
		return nil, ErrNoApprovedPass
	case errors.Is(err, repo.ErrStaleStatus):
		return nil, ErrStudentStatusMoved
	case err != nil:
		return nil, fmt.Errorf("clinic check-in: %w", err)
	}
	s.finish(ctx, "checkin", notified)
	return &visit, nil
}

func (s *clinicService) RecordFindings(ctx context.Context, actor, visitID uuid.UUID, req FindingsRequest) (*repo.ClinicVisit, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}
	sealed, err := s.sealer.Seal(req.Notes)
	if err != nil {
		return nil, fmt.Errorf("seal notes: %w", err)
	}

	var (
		visit    repo.ClinicVisit
		notified []repo.Notification
	)
	err = s.store.InTx(ctx, func(q Tx) error {
		var err error
		if visit, err = q.RecordFindings(ctx, visitID, actor, req.Reason, sealed, req.Decision); err != nil {
			return err
		}
		st, err := q.StudentByID(ctx, visit.StudentID)
		if err != nil {
			return err
		}
		issuer, err := q.VisitIssuer(ctx, visit.ID)
		if err != nil {
			return err
		}
		obj := studentObject(st, visit.ID)
		obj.Status = req.Decision
		obj.Remarks = req.Reason
		if notified, err = q.InsertNotifications(ctx, notification.Fanout(&actor, notification.VerbFindingsReady,
			obj, []uuid.UUID{issuer})); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionClinicFindingsUpdated, "clinic_visits", visit.ID,
			map[string]any{"student_name": st.FullName, "decision": req.Decision}))
	})
	if err := visitError("record findings", err); err != nil {
		return nil, err
	}
	s.finish(ctx, "findings", notified)
	return s.open(&visit)
}

func (s *clinicService) NotifyParent(ctx context.Context, caller Caller, visitID uuid.UUID) (*repo.ClinicVisit, error) {
	var (
		visit    repo.ClinicVisit
		notified []repo.Notification
	)
	err := s.store.InTx(ctx, func(q Tx) error {
		issuer, err := q.VisitIssuer(ctx, visitID)
		if err != nil {
			return err
		}
		if !caller.IsAdmin && (issuer == uuid.Nil || issuer != caller.ID) {
			return ErrNotIssuer
		}
		if visit, err = q.MarkParentNotified(ctx, visitID); err != nil {
			return err
		}
		st, err := q.StudentByID(ctx, visit.StudentID)
		if err != nil {
			return err
		}
		parents, err := q.ParentIDs(ctx, st.ID)
		if err != nil {
			return err
		}
		obj := studentObject(st, visit.ID)
		obj.Remarks = visit.Reason
		if visit.Decision != nil {
			obj.Status = *visit.Decision
		}
		if notified, err = q.InsertNotifications(ctx, notification.Fanout(&caller.ID, notification.VerbClinicUpdate,
			obj, parents)); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(caller.ID, audit.ActionParentNotified, "clinic_visits", visit.ID,
			map[string]any{"student_name": st.FullName, "parents": len(parents)}))
	})
	if errors.Is(err, ErrNotIssuer) {
		return nil, ErrNotIssuer
	}
	if err := visitError("notify parent", err); err != nil {
		return nil, err
	}
	s.finish(ctx, "parent_notified", notified)
	return s.open(&visit)
}

func (s *clinicService) Discharge(ctx context.Context, actor, visitID uuid.UUID) (*repo.ClinicVisit, error) {
	var (
		visit    repo.ClinicVisit
		notified []repo.Notification
	)
	err := s.store.InTx(ctx, func(q Tx) error {
		current, err := q.VisitByID(ctx, visitID)
		if err != nil {
			return err
		}
		if current.Decision == nil {
			return repo.ErrStaleStatus
		}
		outcome, next := OutcomeFor(*current.Decision)
		if visit, err = q.ReleaseVisit(ctx, visitID, outcome); err != nil {
			return err
		}
		// current_status is a cache; discharge overwrites whatever drifted.
		if err := q.ForceStudentStatus(ctx, visit.StudentID, next); err != nil {
			return err
		}
		day := calendar.Day(visit.VisitTime, s.loc)
		if err := q.AppendRemarks(ctx, visit.StudentID, day, fmt.Sprintf("(Result: %s)", outcome)); err != nil {
			return err
		}
		if _, err := q.SetClinicSubjectRemarks(ctx, visit.StudentID, day,
			fmt.Sprintf("Clinic Visit %s (Result: %s)", visit.ID, outcome)); err != nil {
			return err
		}

		st, err := q.StudentByID(ctx, visit.StudentID)
		if err != nil {
			return err
		}
		issuer, err := q.VisitIssuer(ctx, visit.ID)
		if err != nil {
			return err
		}
		parents, err := q.ParentIDs(ctx, st.ID)
		if err != nil {
			return err
		}
		obj := studentObject(st, visit.ID)
		obj.Status = outcome
		if notified, err = q.InsertNotifications(ctx, notification.Fanout(&actor, notification.VerbClinicCheckout,
			obj, []uuid.UUID{issuer}, parents)); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionClinicCheckout, "clinic_visits", visit.ID,
			map[string]any{"student_name": st.FullName, "outcome": outcome}))
	})
	if err := visitError("discharge", err); err != nil {
		return nil, err
	}
	s.finish(ctx, "discharged", notified)
	return s.open(&visit)
}

func (s *clinicService) GetVisit(ctx context.Context, id uuid.UUID) (*repo.ClinicVisit, error) {
	v, err := s.store.VisitByID(ctx, id)
	if err := visitError("get visit", err); err != nil {
		return nil, err
	}
	return s.open(&v)
}

func (s *clinicService) ListVisits(ctx context.Context, f repo.VisitFilter, page repo.Page) ([]repo.ClinicVisit, error) {
	visits, err := s.store.ListVisits(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("list clinic visits: %w", err)
	}
	out := make([]repo.ClinicVisit, 0, len(visits))
	for i := range visits {
		v, err := s.open(&visits[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// open replaces the sealed notes with plaintext.
func (s *clinicService) open(v *repo.ClinicVisit) (*repo.ClinicVisit, error) {
	notes, err := s.sealer.Open(v.Notes)
	if err != nil {
		return nil, fmt.Errorf("open visit notes: %w", err)
	}
	v.Notes = notes
	return v, nil
}

func visitError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return ErrVisitNotFound
	case errors.Is(err, repo.ErrStaleStatus):
		return ErrInvalidTransition
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
