package attendance

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/calendar"
	"github.com/educare/track_backend/internal/service/settings"
)

// fakeStore records attendance rows in memory. Its InsertAttendance enforces
// the one-open-entry-per-day index like the real table.
type fakeStore struct {
	students map[string]repo.Student
	rows     []repo.Attendance
	audits   []repo.NewAuditLog
	notified []repo.NewNotification
	// skipOpenCheck makes HasOpenEntry miss, as when two terminals race.
	skipOpenCheck bool
}

func newFakeStore(students ...repo.Student) *fakeStore {
	f := &fakeStore{students: map[string]repo.Student{}}
	for _, st := range students {
		f.students[st.StudentCode] = st
	}
	return f
}

func (f *fakeStore) InTx(_ context.Context, fn func(q Tx) error) error {
	students, rows := make(map[string]repo.Student, len(f.students)), slices.Clone(f.rows)
	for k, v := range f.students {
		students[k] = v
	}
	audits, notified := slices.Clone(f.audits), slices.Clone(f.notified)
	if err := fn(f); err != nil {
		f.students, f.rows, f.audits, f.notified = students, rows, audits, notified
		return err
	}
	return nil
}

func (f *fakeStore) StudentByCode(_ context.Context, code string) (repo.Student, error) {
	st, ok := f.students[code]
	if !ok {
		return st, repo.ErrNotFound
	}
	return st, nil
}

func (f *fakeStore) IsGatekeeper(context.Context, uuid.UUID) (bool, error) { return false, nil }

func (f *fakeStore) openEntry(studentID uuid.UUID, day time.Time) bool {
	return slices.ContainsFunc(f.rows, func(a repo.Attendance) bool {
		return a.StudentID == studentID && a.TapDate.Equal(day) &&
			a.EntryType == repo.EntryTypeEntry && a.Status != repo.StatusMorningAbsent
	})
}

func (f *fakeStore) HasOpenEntry(_ context.Context, studentID uuid.UUID, day time.Time) (bool, error) {
	if f.skipOpenCheck {
		return false, nil
	}
	return f.openEntry(studentID, day), nil
}

func (f *fakeStore) InsertAttendance(_ context.Context, a repo.NewAttendance) (repo.Attendance, error) {
	if a.EntryType == repo.EntryTypeEntry && a.Status != repo.StatusMorningAbsent && f.openEntry(a.StudentID, a.TapDate) {
		return repo.Attendance{}, repo.ErrOpenEntryExists
	}
	row := repo.Attendance{ID: uuid.New(), StudentID: a.StudentID, Status: a.Status, EntryType: a.EntryType,
		Session: a.Session, Method: a.Method, TapTime: a.TapTime, TapDate: a.TapDate, Remarks: a.Remarks,
		RecordedBy: a.RecordedBy}
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeStore) setStatus(id uuid.UUID, status string) {
	for code, st := range f.students {
		if st.ID == id {
			st.CurrentStatus = status
			f.students[code] = st
		}
	}
}

func (f *fakeStore) SetStudentStatus(_ context.Context, id uuid.UUID, expected, next string) error {
	for _, st := range f.students {
		if st.ID == id && st.CurrentStatus != expected {
			return repo.ErrStaleStatus
		}
	}
	f.setStatus(id, next)
	return nil
}

func (f *fakeStore) ForceStudentStatus(_ context.Context, id uuid.UUID, status string) error {
	f.setStatus(id, status)
	return nil
}

func (f *fakeStore) ParentIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return []uuid.UUID{uuid.New()}, nil
}

func (f *fakeStore) InsertNotifications(_ context.Context, in []repo.NewNotification) ([]repo.Notification, error) {
	f.notified = append(f.notified, in...)
	return nil, nil
}

func (f *fakeStore) InsertAudit(_ context.Context, a repo.NewAuditLog) error {
	f.audits = append(f.audits, a)
	return nil
}

func (f *fakeStore) ListAttendance(context.Context, repo.AttendanceFilter, repo.Page) ([]repo.Attendance, error) {
	return f.rows, nil
}

func (f *fakeStore) DerivedStatus(context.Context, uuid.UUID, time.Time) (string, error) {
	return repo.StudentOut, nil
}

// closedDays is a calendar that blocks the listed dates.
type closedDays map[string]bool

func (c closedDays) CheckDay(_ context.Context, day time.Time, _ string) (*calendar.Check, error) {
	return &calendar.Check{SchoolDay: !c[day.Format(time.DateOnly)]}, nil
}

func (closedDays) List(context.Context, time.Time, time.Time) ([]repo.CalendarEntry, error) {
	return nil, nil
}

func (closedDays) Create(context.Context, uuid.UUID, calendar.Input) (*repo.CalendarEntry, error) {
	return nil, nil
}

func (closedDays) Update(context.Context, uuid.UUID, uuid.UUID, calendar.Input) (*repo.CalendarEntry, error) {
	return nil, nil
}

func (closedDays) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type fixedTimes settings.TapTimes

func (t fixedTimes) TapTimes(context.Context) (settings.TapTimes, error) {
	return settings.TapTimes(t), nil
}

func (t fixedTimes) UpdateTapTimes(context.Context, uuid.UUID, settings.TapTimes) (settings.TapTimes, error) {
	return settings.TapTimes(t), nil
}

func (fixedTimes) Branding(context.Context) (settings.Branding, error) { return settings.Branding{}, nil }

func (fixedTimes) UpdateBranding(_ context.Context, _ uuid.UUID, b settings.Branding) (settings.Branding, error) {
	return b, nil
}

var schoolTimes = fixedTimes{Arrival: "07:30", Kinder: "11:00", G13: "14:00", G46: "15:00", JHS: "16:00", SHS: "16:30"}

const gateCode = "EDU-2025-4321-WXYZ"

func gateStudent() repo.Student {
	return repo.Student{ID: uuid.New(), StudentCode: gateCode, FullName: "Ana Cruz", GradeLevel: "Grade 7",
		CurrentStatus: repo.StudentOut}
}

func newStoredGate(now time.Time, store *fakeStore, closed closedDays) *attendanceService {
	s := newGate(now)
	s.store = store
	s.calendar = closed
	s.settings = schoolTimes
	return s
}

var guardRec = Recorder{ID: uuid.New(), Role: repo.RoleGuard}

func TestProcessTapEntryThenExit(t *testing.T) {
	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	now := day.Add(17 * time.Hour)
	store := newFakeStore(gateStudent())
	s := newStoredGate(now, store, nil)
	ctx := context.Background()

	in, err := s.ProcessTap(ctx, Tap{Code: gateCode, At: day.Add(7*time.Hour + 10*time.Minute), Recorder: guardRec})
	require.NoError(t, err)
	assert.Equal(t, repo.EntryTypeEntry, in.Attendance.EntryType)
	assert.Equal(t, repo.StatusPresent, in.Attendance.Status)
	assert.Equal(t, repo.StudentPresent, in.Student.CurrentStatus)

	out, err := s.ProcessTap(ctx, Tap{Code: gateCode, At: day.Add(16*time.Hour + 5*time.Minute), Recorder: guardRec})
	require.NoError(t, err)
	assert.Equal(t, repo.EntryTypeExit, out.Attendance.EntryType)
	assert.Equal(t, RemarkRegularExit, out.Attendance.Remarks)
	assert.Equal(t, repo.StudentOut, store.students[gateCode].CurrentStatus)
	assert.Len(t, store.audits, 2)
}

func TestProcessTapHolidayWritesNothing(t *testing.T) {
	day := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	store := newFakeStore(gateStudent())
	s := newStoredGate(day.Add(8*time.Hour), store, closedDays{"2025-06-12": true})
	ctx := context.Background()
	at := day.Add(7 * time.Hour)

	_, err := s.ProcessTap(ctx, Tap{Code: gateCode, At: at, Recorder: guardRec})
	assert.ErrorIs(t, err, ErrSchoolDayBlocked)
	assert.Empty(t, store.rows)
	assert.Empty(t, store.audits)
	assert.Empty(t, store.notified)
	assert.Equal(t, repo.StudentOut, store.students[gateCode].CurrentStatus)

	ok, err := s.dedupe.Claim(ctx, gateCode, at)
	require.NoError(t, err)
	assert.True(t, ok, "a rejected tap gives its dedupe slot back")
}

func TestProcessTapRejectsSecondEntry(t *testing.T) {
	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	for _, race := range []bool{false, true} {
		name := "open entry lookup"
		if race {
			name = "entry index"
		}
		t.Run(name, func(t *testing.T) {
			st := gateStudent()
			store := newFakeStore(st)
			store.rows = append(store.rows, repo.Attendance{ID: uuid.New(), StudentID: st.ID,
				Status: repo.StatusPresent, EntryType: repo.EntryTypeEntry, TapDate: day})
			store.skipOpenCheck = race
			s := newStoredGate(day.Add(10*time.Hour), store, nil)

			_, err := s.ProcessTap(context.Background(), Tap{Code: gateCode, At: day.Add(9 * time.Hour), Recorder: guardRec})
			assert.ErrorIs(t, err, ErrAlreadyEntered)
			assert.Len(t, store.rows, 1)
			assert.Empty(t, store.audits)
			assert.Equal(t, repo.StudentOut, store.students[gateCode].CurrentStatus)
		})
	}
}

func TestProcessTapAllowsEntryAfterMorningAbsence(t *testing.T) {
	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	st := gateStudent()
	store := newFakeStore(st)
	store.rows = append(store.rows, repo.Attendance{ID: uuid.New(), StudentID: st.ID,
		Status: repo.StatusMorningAbsent, EntryType: repo.EntryTypeEntry, TapDate: day})
	s := newStoredGate(day.Add(14*time.Hour), store, nil)

	res, err := s.ProcessTap(context.Background(), Tap{Code: gateCode, At: day.Add(13 * time.Hour), Recorder: guardRec})
	require.NoError(t, err)
	assert.Equal(t, repo.StatusMorningAbsent, res.Attendance.Status)
}

func TestSyncReplaysAtCaptureTime(t *testing.T) {
	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	captured := day.Add(7*time.Hour + 20*time.Minute)
	store := newFakeStore(gateStudent())
	// synced mid-morning, well after the arrival cutoff
	s := newStoredGate(day.Add(10*time.Hour), store, nil)

	results, err := s.Sync(context.Background(), guardRec, []OfflineScan{
		{ID: "q1", StudentID: gateCode, Timestamp: captured},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].OK, results[0].Error)

	row := results[0].Attendance
	assert.True(t, row.TapTime.Equal(captured), "tap_time = %s", row.TapTime)
	assert.Equal(t, day, row.TapDate)
	assert.Equal(t, repo.MethodOffline, row.Method)
	assert.Equal(t, repo.StatusPresent, row.Status, "classified by capture time, not sync time")
	require.NotNil(t, row.RecordedBy)
	assert.Equal(t, guardRec.ID, *row.RecordedBy)
}
