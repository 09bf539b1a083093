package excuse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
)

type excusedCall struct {
	student uuid.UUID
	day     time.Time
	remark  string
}

// fakeStore serves one letter and records what a decision writes.
type fakeStore struct {
	letters  map[uuid.UUID]repo.ExcuseLetter
	students map[uuid.UUID]repo.Student
	advisers map[uuid.UUID]uuid.UUID

	gateRows    []excusedCall
	subjectRows []excusedCall
	audits      []repo.NewAuditLog
}

func (f *fakeStore) InTx(_ context.Context, fn func(q Tx) error) error { return fn(f) }

func (f *fakeStore) StudentByID(_ context.Context, id uuid.UUID) (repo.Student, error) {
	st, ok := f.students[id]
	if !ok {
		return st, repo.ErrNotFound
	}
	return st, nil
}

func (f *fakeStore) IsParentOf(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return true, nil }

func (f *fakeStore) IsAdviserOf(_ context.Context, teacherID, studentID uuid.UUID) (bool, error) {
	return f.advisers[studentID] == teacherID, nil
}

func (f *fakeStore) AdviserID(_ context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	return f.advisers[studentID], nil
}

func (f *fakeStore) InsertExcuse(_ context.Context, e repo.NewExcuse) (repo.ExcuseLetter, error) {
	l := repo.ExcuseLetter{ID: uuid.New(), ParentID: e.ParentID, StudentID: e.StudentID, AbsentDate: e.AbsentDate,
		Reason: e.Reason, Status: StatusPending}
	f.letters[l.ID] = l
	return l, nil
}

func (f *fakeStore) ExcuseByID(_ context.Context, id uuid.UUID) (repo.ExcuseLetter, error) {
	l, ok := f.letters[id]
	if !ok {
		return l, repo.ErrNotFound
	}
	return l, nil
}

func (f *fakeStore) DecideExcuse(_ context.Context, id uuid.UUID, status string, reviewer uuid.UUID, comment *string) (repo.ExcuseLetter, error) {
	l, ok := f.letters[id]
	switch {
	case !ok:
		return l, repo.ErrNotFound
	case l.Status != StatusPending:
		return l, repo.ErrStaleStatus
	}
	l.Status, l.ReviewedBy, l.TeacherComment = status, &reviewer, comment
	f.letters[id] = l
	return l, nil
}

func (f *fakeStore) ListExcuses(context.Context, repo.ExcuseFilter, repo.Page) ([]repo.ExcuseLetter, error) {
	return nil, nil
}

func (f *fakeStore) MarkExcused(_ context.Context, studentID uuid.UUID, day time.Time, remark string) (int64, error) {
	f.gateRows = append(f.gateRows, excusedCall{studentID, day, remark})
	return 1, nil
}

func (f *fakeStore) MarkSubjectExcused(_ context.Context, studentID uuid.UUID, day time.Time, remark string) (int64, error) {
	f.subjectRows = append(f.subjectRows, excusedCall{studentID, day, remark})
	return 3, nil
}

func (f *fakeStore) InsertNotifications(context.Context, []repo.NewNotification) ([]repo.Notification, error) {
	return nil, nil
}

func (f *fakeStore) InsertAudit(_ context.Context, a repo.NewAuditLog) error {
	f.audits = append(f.audits, a)
	return nil
}

func newDecideFixture() (*excuseService, *fakeStore, repo.ExcuseLetter, uuid.UUID) {
	adviser := uuid.New()
	st := repo.Student{ID: uuid.New(), FullName: "Ben Reyes"}
	letter := repo.ExcuseLetter{ID: uuid.New(), ParentID: uuid.New(), StudentID: st.ID,
		AbsentDate: time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC), Reason: "fever", Status: StatusPending}
	store := &fakeStore{
		letters:  map[uuid.UUID]repo.ExcuseLetter{letter.ID: letter},
		students: map[uuid.UUID]repo.Student{st.ID: st},
		advisers: map[uuid.UUID]uuid.UUID{st.ID: adviser},
	}
	return &excuseService{store: store, now: time.Now}, store, letter, adviser
}

func TestDecideApprovalExcusesGateAndSubjectRows(t *testing.T) {
	svc, store, letter, adviser := newDecideFixture()

	got, err := svc.Decide(context.Background(), Caller{ID: adviser, Role: repo.RoleTeacher}, letter.ID,
		DecideRequest{Status: " Approved "})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if got.Status != StatusApproved {
		t.Errorf("Status = %q", got.Status)
	}

	want := excusedCall{letter.StudentID, letter.AbsentDate, "Excuse Letter ID: " + letter.ID.String()}
	if len(store.gateRows) != 1 || store.gateRows[0] != want {
		t.Errorf("gate rows = %+v, want [%+v]", store.gateRows, want)
	}
	if len(store.subjectRows) != 1 || store.subjectRows[0] != want {
		t.Errorf("subject rows = %+v, want [%+v]", store.subjectRows, want)
	}
	if len(store.audits) != 1 {
		t.Fatalf("audits = %d, want 1", len(store.audits))
	}
	details, _ := store.audits[0].Details.(map[string]any)
	if details["periods_excused"] != int64(3) || details["rows_excused"] != int64(1) {
		t.Errorf("audit details = %v", details)
	}
}

func TestDecideRejectionLeavesAttendanceAlone(t *testing.T) {
	svc, store, letter, adviser := newDecideFixture()

	_, err := svc.Decide(context.Background(), Caller{ID: adviser, Role: repo.RoleTeacher}, letter.ID,
		DecideRequest{Status: StatusRejected, Comment: "no medical note"})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(store.gateRows) != 0 || len(store.subjectRows) != 0 {
		t.Errorf("rejection touched attendance: gate %v subject %v", store.gateRows, store.subjectRows)
	}
}

func TestDecideGuards(t *testing.T) {
	tests := []struct {
		name   string
		caller func(adviser uuid.UUID) Caller
		req    DecideRequest
		want   error
	}{
		{"other teacher", func(uuid.UUID) Caller { return Caller{ID: uuid.New(), Role: repo.RoleTeacher} },
			DecideRequest{Status: StatusApproved}, ErrNotAdviser},
		{"rejection without comment", func(a uuid.UUID) Caller { return Caller{ID: a, Role: repo.RoleTeacher} },
			DecideRequest{Status: StatusRejected}, ErrCommentRequired},
		{"unknown decision", func(a uuid.UUID) Caller { return Caller{ID: a, Role: repo.RoleTeacher} },
			DecideRequest{Status: "maybe"}, ErrInvalidDecision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, letter, adviser := newDecideFixture()
			_, err := svc.Decide(context.Background(), tt.caller(adviser), letter.ID, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(store.gateRows)+len(store.subjectRows)+len(store.audits) != 0 {
				t.Error("a refused decision wrote rows")
			}
		})
	}

	t.Run("second decision", func(t *testing.T) {
		svc, _, letter, _ := newDecideFixture()
		admin := Caller{ID: uuid.New(), Role: repo.RoleAdmin}
		if _, err := svc.Decide(context.Background(), admin, letter.ID, DecideRequest{Status: StatusApproved}); err != nil {
			t.Fatalf("first Decide: %v", err)
		}
		_, err := svc.Decide(context.Background(), admin, letter.ID, DecideRequest{Status: StatusApproved})
		if !errors.Is(err, ErrAlreadyDecided) {
			t.Errorf("err = %v, want ErrAlreadyDecided", err)
		}
	})
}
