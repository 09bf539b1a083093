package clinic

import (
	"context"
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educare/track_backend/internal/repo"
)

// fakeStore holds passes and visits in maps and undoes a failed transaction.
type fakeStore struct {
	students map[uuid.UUID]repo.Student
	passes   map[uuid.UUID]repo.ClinicPass
	visits   map[uuid.UUID]repo.ClinicVisit
	parents  map[uuid.UUID][]uuid.UUID
	advisers map[uuid.UUID]uuid.UUID

	remarks        []string
	subjectRemarks []string
	notified       []repo.NewNotification
	audits         []repo.NewAuditLog
	clock          time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students: map[uuid.UUID]repo.Student{},
		passes:   map[uuid.UUID]repo.ClinicPass{},
		visits:   map[uuid.UUID]repo.ClinicVisit{},
		parents:  map[uuid.UUID][]uuid.UUID{},
		advisers: map[uuid.UUID]uuid.UUID{},
		clock:    time.Date(2025, 6, 16, 1, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) InTx(_ context.Context, fn func(q Tx) error) error {
	students, passes, visits := maps.Clone(f.students), maps.Clone(f.passes), maps.Clone(f.visits)
	remarks, subj := slices.Clone(f.remarks), slices.Clone(f.subjectRemarks)
	notified, audits := slices.Clone(f.notified), slices.Clone(f.audits)
	if err := fn(f); err != nil {
		f.students, f.passes, f.visits = students, passes, visits
		f.remarks, f.subjectRemarks = remarks, subj
		f.notified, f.audits = notified, audits
		return err
	}
	return nil
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fakeStore) StudentByID(_ context.Context, id uuid.UUID) (repo.Student, error) {
	st, ok := f.students[id]
	if !ok {
		return st, repo.ErrNotFound
	}
	return st, nil
}

func (f *fakeStore) StudentByCode(_ context.Context, code string) (repo.Student, error) {
	for _, st := range f.students {
		if st.StudentCode == code {
			return st, nil
		}
	}
	return repo.Student{}, repo.ErrNotFound
}

func (f *fakeStore) ParentIDs(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return f.parents[id], nil
}

func (f *fakeStore) AdviserID(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	return f.advisers[id], nil
}

func (f *fakeStore) ActiveProfileIDsByRole(context.Context, ...string) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeStore) SetStudentStatus(_ context.Context, id uuid.UUID, expected, next string) error {
	st := f.students[id]
	if st.CurrentStatus != expected {
		return repo.ErrStaleStatus
	}
	st.CurrentStatus = next
	f.students[id] = st
	return nil
}

func (f *fakeStore) ForceStudentStatus(_ context.Context, id uuid.UUID, status string) error {
	st := f.students[id]
	st.CurrentStatus = status
	f.students[id] = st
	return nil
}

func (f *fakeStore) InsertPass(_ context.Context, studentID, issuedBy uuid.UUID, reason, notes string) (repo.ClinicPass, error) {
	p := repo.ClinicPass{ID: uuid.New(), StudentID: studentID, IssuedBy: &issuedBy, Reason: reason, Notes: notes,
		Status: repo.PassPending, IssuedAt: f.tick()}
	f.passes[p.ID] = p
	return p, nil
}

func (f *fakeStore) ReviewPass(_ context.Context, id uuid.UUID, status string, reviewer uuid.UUID, rejection *string) (repo.ClinicPass, error) {
	p, ok := f.passes[id]
	switch {
	case !ok:
		return p, repo.ErrNotFound
	case p.Status != repo.PassPending:
		return p, repo.ErrStaleStatus
	}
	p.Status, p.ReviewedBy, p.RejectionReason = status, &reviewer, rejection
	f.passes[id] = p
	return p, nil
}

func (f *fakeStore) UsePass(_ context.Context, studentID uuid.UUID) (repo.ClinicPass, error) {
	var newest *repo.ClinicPass
	for _, p := range f.passes {
		if p.StudentID == studentID && p.Status == repo.PassApproved && (newest == nil || p.IssuedAt.After(newest.IssuedAt)) {
			newest = &p
		}
	}
	if newest == nil {
		return repo.ClinicPass{}, repo.ErrNotFound
	}
	newest.Status = repo.PassUsed
	f.passes[newest.ID] = *newest
	return *newest, nil
}

func (f *fakeStore) AttachVisit(_ context.Context, passID, visitID uuid.UUID) error {
	p := f.passes[passID]
	p.ClinicVisitID = &visitID
	f.passes[passID] = p
	return nil
}

func (f *fakeStore) ListPasses(context.Context, repo.PassFilter, repo.Page) ([]repo.ClinicPass, error) {
	return slices.Collect(maps.Values(f.passes)), nil
}

func (f *fakeStore) InsertVisit(_ context.Context, v repo.NewVisit) (repo.ClinicVisit, error) {
	by := v.CheckedInBy
	out := repo.ClinicVisit{ID: uuid.New(), StudentID: v.StudentID, PassID: v.PassID, CheckedInBy: &by,
		VisitTime: f.tick(), Reason: v.Reason, Status: repo.VisitCheckedIn}
	f.visits[out.ID] = out
	return out, nil
}

func (f *fakeStore) VisitByID(_ context.Context, id uuid.UUID) (repo.ClinicVisit, error) {
	v, ok := f.visits[id]
	if !ok {
		return v, repo.ErrNotFound
	}
	return v, nil
}

// guarded applies change when the visit sits in queue, mirroring the
// conditional updates of the real store.
func (f *fakeStore) guarded(id uuid.UUID, queue repo.VisitQueue, change func(*repo.ClinicVisit)) (repo.ClinicVisit, error) {
	v, ok := f.visits[id]
	switch {
	case !ok:
		return v, repo.ErrNotFound
	case !queue.Holds(v):
		return v, repo.ErrStaleStatus
	}
	change(&v)
	f.visits[id] = v
	return v, nil
}

func (f *fakeStore) RecordFindings(_ context.Context, id, treatedBy uuid.UUID, reason, notes, decision string) (repo.ClinicVisit, error) {
	return f.guarded(id, repo.QueuePendingFindings, func(v *repo.ClinicVisit) {
		v.Status, v.TreatedBy, v.Reason, v.Notes, v.Decision = repo.VisitTreated, &treatedBy, reason, notes, &decision
	})
}

func (f *fakeStore) MarkParentNotified(_ context.Context, id uuid.UUID) (repo.ClinicVisit, error) {
	return f.guarded(id, repo.QueueParentApproval, func(v *repo.ClinicVisit) { v.ParentNotified = true })
}

func (f *fakeStore) ReleaseVisit(_ context.Context, id uuid.UUID, outcome string) (repo.ClinicVisit, error) {
	return f.guarded(id, repo.QueueDischarge, func(v *repo.ClinicVisit) {
		at := f.tick()
		v.Status, v.Outcome, v.ReleasedAt = repo.VisitReleased, &outcome, &at
	})
}

func (f *fakeStore) VisitIssuer(_ context.Context, visitID uuid.UUID) (uuid.UUID, error) {
	v, ok := f.visits[visitID]
	if !ok {
		return uuid.Nil, repo.ErrNotFound
	}
	if v.PassID == nil || f.passes[*v.PassID].IssuedBy == nil {
		return uuid.Nil, nil
	}
	return *f.passes[*v.PassID].IssuedBy, nil
}

func (f *fakeStore) ListVisits(_ context.Context, filter repo.VisitFilter, _ repo.Page) ([]repo.ClinicVisit, error) {
	var out []repo.ClinicVisit
	for _, v := range f.visits {
		if filter.Queue.Holds(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendRemarks(_ context.Context, _ uuid.UUID, _ time.Time, suffix string) error {
	f.remarks = append(f.remarks, suffix)
	return nil
}

func (f *fakeStore) MarkSubjectClinic(_ context.Context, _ uuid.UUID, _ time.Time, remark string) (int64, error) {
	f.subjectRemarks = append(f.subjectRemarks, remark)
	return 1, nil
}

func (f *fakeStore) SetClinicSubjectRemarks(_ context.Context, _ uuid.UUID, _ time.Time, remark string) (int64, error) {
	f.subjectRemarks = append(f.subjectRemarks, remark)
	return 1, nil
}

func (f *fakeStore) InsertNotifications(_ context.Context, in []repo.NewNotification) ([]repo.Notification, error) {
	f.notified = append(f.notified, in...)
	return nil, nil
}

func (f *fakeStore) InsertAudit(_ context.Context, a repo.NewAuditLog) error {
	f.audits = append(f.audits, a)
	return nil
}

type clinicFixture struct {
	store   *fakeStore
	svc     *clinicService
	teacher uuid.UUID
	nurse   uuid.UUID
	ctx     context.Context
}

func newClinicFixture() *clinicFixture {
	store := newFakeStore()
	return &clinicFixture{
		store:   store,
		svc:     newService(store, plainSealer{}, nil, nil, time.UTC),
		teacher: uuid.New(),
		nurse:   uuid.New(),
		ctx:     context.Background(),
	}
}

func (fx *clinicFixture) student(t *testing.T, code string) repo.Student {
	t.Helper()
	st := repo.Student{ID: uuid.New(), StudentCode: code, FullName: "Student " + code, CurrentStatus: repo.StudentPresent}
	fx.store.students[st.ID] = st
	fx.store.parents[st.ID] = []uuid.UUID{uuid.New()}
	return st
}

// approvedPass issues and approves a pass for st.
func (fx *clinicFixture) approvedPass(t *testing.T, st repo.Student) repo.ClinicPass {
	t.Helper()
	p, err := fx.svc.IssuePass(fx.ctx, fx.teacher, IssueRequest{StudentID: st.ID, Reason: "headache"})
	require.NoError(t, err)
	p, err = fx.svc.ApprovePass(fx.ctx, fx.nurse, p.ID)
	require.NoError(t, err)
	return *p
}

func (fx *clinicFixture) checkIn(t *testing.T, st repo.Student) repo.ClinicVisit {
	t.Helper()
	fx.approvedPass(t, st)
	v, err := fx.svc.CheckIn(fx.ctx, fx.nurse, st.StudentCode)
	require.NoError(t, err)
	return *v
}

func TestCheckInUsesPassOnce(t *testing.T) {
	fx := newClinicFixture()
	st := fx.student(t, "EDU-2025-1201-AB01")
	pass := fx.approvedPass(t, st)

	visit, err := fx.svc.CheckIn(fx.ctx, fx.nurse, st.StudentCode)
	require.NoError(t, err)
	assert.Equal(t, repo.PassUsed, fx.store.passes[pass.ID].Status)
	assert.Equal(t, visit.ID, *fx.store.passes[pass.ID].ClinicVisitID)
	assert.Equal(t, repo.StudentInClinic, fx.store.students[st.ID].CurrentStatus)
	assert.Contains(t, fx.store.subjectRemarks, "Clinic Visit ID: "+visit.ID.String())

	audits := len(fx.store.audits)
	_, err = fx.svc.CheckIn(fx.ctx, fx.nurse, st.StudentCode)
	assert.ErrorIs(t, err, ErrNoApprovedPass)
	assert.Len(t, fx.store.visits, 1)
	assert.Len(t, fx.store.audits, audits)
}

func TestCheckInWithoutApprovedPass(t *testing.T) {
	fx := newClinicFixture()
	st := fx.student(t, "EDU-2025-1202-AB02")
	_, err := fx.svc.IssuePass(fx.ctx, fx.teacher, IssueRequest{StudentID: st.ID, Reason: "cough"})
	require.NoError(t, err)

	_, err = fx.svc.CheckIn(fx.ctx, fx.nurse, st.StudentCode)
	assert.ErrorIs(t, err, ErrNoApprovedPass)
	assert.Empty(t, fx.store.visits)
	assert.Equal(t, repo.StudentPresent, fx.store.students[st.ID].CurrentStatus)
}

func TestDischargeQueueHoldsOnlyNotifiedDecisions(t *testing.T) {
	fx := newClinicFixture()
	waiting := fx.checkIn(t, fx.student(t, "EDU-2025-1211-AB11"))
	treated := fx.checkIn(t, fx.student(t, "EDU-2025-1212-AB12"))
	ready := fx.checkIn(t, fx.student(t, "EDU-2025-1213-AB13"))

	for _, id := range []uuid.UUID{treated.ID, ready.ID} {
		_, err := fx.svc.RecordFindings(fx.ctx, fx.nurse, id, FindingsRequest{Reason: "fever", Decision: repo.DecisionSendHome})
		require.NoError(t, err)
	}
	_, err := fx.svc.NotifyParent(fx.ctx, Caller{ID: fx.teacher}, ready.ID)
	require.NoError(t, err)

	queue, err := fx.svc.ListVisits(fx.ctx, repo.VisitFilter{Queue: repo.QueueDischarge}, repo.Page{})
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, ready.ID, queue[0].ID)

	pending, err := fx.svc.ListVisits(fx.ctx, repo.VisitFilter{Queue: repo.QueuePendingFindings}, repo.Page{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, waiting.ID, pending[0].ID)

	_, err = fx.svc.Discharge(fx.ctx, fx.nurse, treated.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = fx.svc.Discharge(fx.ctx, fx.nurse, waiting.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	out, err := fx.svc.Discharge(fx.ctx, fx.nurse, ready.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.VisitReleased, out.Status)
	assert.Equal(t, repo.OutcomeSentHome, *out.Outcome)
	assert.Equal(t, repo.StudentSentHome, fx.store.students[out.StudentID].CurrentStatus)
	assert.Contains(t, fx.store.subjectRemarks, "Clinic Visit "+ready.ID.String()+" (Result: sent_home)")
	assert.Contains(t, fx.store.remarks, "(Result: sent_home)")

	queue, err = fx.svc.ListVisits(fx.ctx, repo.VisitFilter{Queue: repo.QueueDischarge}, repo.Page{})
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestNotifyParentOnlyByIssuer(t *testing.T) {
	fx := newClinicFixture()
	visit := fx.checkIn(t, fx.student(t, "EDU-2025-1221-AB21"))
	_, err := fx.svc.RecordFindings(fx.ctx, fx.nurse, visit.ID, FindingsRequest{Reason: "dizzy", Decision: repo.DecisionReturnToClass})
	require.NoError(t, err)

	_, err = fx.svc.NotifyParent(fx.ctx, Caller{ID: uuid.New()}, visit.ID)
	assert.ErrorIs(t, err, ErrNotIssuer)
	assert.False(t, fx.store.visits[visit.ID].ParentNotified)

	out, err := fx.svc.NotifyParent(fx.ctx, Caller{ID: uuid.New(), IsAdmin: true}, visit.ID)
	require.NoError(t, err)
	assert.True(t, out.ParentNotified)

	_, err = fx.svc.NotifyParent(fx.ctx, Caller{ID: fx.teacher}, visit.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRecordFindingsRejectsUnknownDecision(t *testing.T) {
	fx := newClinicFixture()
	visit := fx.checkIn(t, fx.student(t, "EDU-2025-1231-AB31"))

	_, err := fx.svc.RecordFindings(fx.ctx, fx.nurse, visit.ID, FindingsRequest{Reason: "x", Decision: "admit"})
	assert.ErrorIs(t, err, ErrInvalidDecision)
	assert.Equal(t, repo.VisitCheckedIn, fx.store.visits[visit.ID].Status)
}
