package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/events"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/audit"
	"github.com/educare/track_backend/internal/service/calendar"
	"github.com/educare/track_backend/internal/service/notification"
	"github.com/educare/track_backend/internal/service/settings"
	"github.com/educare/track_backend/pkg/observability"
	"github.com/educare/track_backend/pkg/studentid"
)

const (
	DefaultDuplicateWindow = 5 * time.Second

	// MaxSyncBatch bounds one offline sync request.
	MaxSyncBatch = 500
	// futureSkew tolerates terminal clocks running slightly ahead.
	futureSkew = 2 * time.Minute
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Recorder is the account operating the gate terminal.
type Recorder struct {
	ID   uuid.UUID
	Role string
}

type Tap struct {
	Code     string
	At       time.Time
	Method   string
	Recorder Recorder
}

type Result struct {
	Attendance repo.Attendance `json:"attendance"`
	Student    repo.Student    `json:"student"`
}

// OfflineScan is one buffered scan as the terminal captured it.
type OfflineScan struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Timestamp time.Time `json:"timestamp"`
}

type SyncResult struct {
	ID         string           `json:"id"`
	OK         bool             `json:"ok"`
	Attendance *repo.Attendance `json:"attendance,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// ProcessTap validates, classifies and records one gate tap.
	ProcessTap(ctx context.Context, tap Tap) (*Result, error)
	// Sync replays buffered scans in timestamp order. Individual failures are
	// reported per scan and never abort the batch.
	Sync(ctx context.Context, rec Recorder, scans []OfflineScan) ([]SyncResult, error)
	List(ctx context.Context, f repo.AttendanceFilter, page repo.Page) ([]repo.Attendance, error)
	// Reconcile rebuilds current_status of a student from attendance and
	// clinic rows.
	Reconcile(ctx context.Context, studentID uuid.UUID) (string, error)
	Location() *time.Location
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type attendanceService struct {
	store    Store
	calendar calendar.Service
	settings settings.Service
	dedupe   Deduper
	bus      *events.Bus
	metrics  *observability.Metrics
	loc      *time.Location
	grace    time.Duration
	now      func() time.Time
}

func New(
	store *repo.Store,
	cal calendar.Service,
	st settings.Service,
	dedupe Deduper,
	bus *events.Bus,
	metrics *observability.Metrics,
	cfg *config.Config,
) (Service, error) {
	loc, err := calendar.LoadLocation(cfg.School.Timezone)
	if err != nil {
		return nil, fmt.Errorf("attendance service: %w", err)
	}
	if dedupe == nil {
		dedupe = NewMemoryDeduper(DuplicateWindow(cfg))
	}
	return &attendanceService{
		store:    pgStore{store},
		calendar: cal,
		settings: st,
		dedupe:   dedupe,
		bus:      bus,
		metrics:  metrics,
		loc:      loc,
		grace:    time.Duration(cfg.School.LateExitGraceMinutes) * time.Minute,
		now:      time.Now,
	}, nil
}

// DuplicateWindow reads school.duplicate_window_seconds with its default.
func DuplicateWindow(cfg *config.Config) time.Duration {
	if cfg.School.DuplicateWindowSeconds > 0 {
		return time.Duration(cfg.School.DuplicateWindowSeconds) * time.Second
	}
	return DefaultDuplicateWindow
}

func (s *attendanceService) Location() *time.Location { return s.loc }

func (s *attendanceService) ProcessTap(ctx context.Context, tap Tap) (*Result, error) {
	res, err := s.processTap(ctx, tap)
	if err != nil {
		s.metrics.GateRejected(ctx, rejectReason(err))
		return nil, err
	}
	s.metrics.GateTap(ctx, res.Attendance.EntryType, res.Attendance.Status)
	return res, nil
}

func (s *attendanceService) processTap(ctx context.Context, tap Tap) (*Result, error) {
	code := studentid.Normalize(tap.Code)
	if !studentid.Valid(code) {
		return nil, ErrInvalidCode
	}
	if tap.Method == "" {
		tap.Method = repo.MethodQR
	}
	if !slices.Contains([]string{repo.MethodQR, repo.MethodOffline, repo.MethodManual}, tap.Method) {
		return nil, ErrInvalidMethod
	}
	if tap.At.IsZero() {
		tap.At = s.now()
	}
	if tap.At.After(s.now().Add(futureSkew)) {
		return nil, ErrFutureTimestamp
	}

	ok, err := s.dedupe.Claim(ctx, code, tap.At)
	if err != nil {
		// The unique entry index still guards the table.
		slog.WarnContext(ctx, "attendance: dedupe unavailable", "code", code, "err", err)
		ok = true
	}
	if !ok {
		return nil, ErrDuplicateScan
	}

	res, err := s.record(ctx, code, tap)
	if err != nil {
		if rerr := s.dedupe.Release(ctx, code, tap.At); rerr != nil {
			slog.WarnContext(ctx, "attendance: release dedupe claim", "code", code, "err", rerr)
		}
		return nil, err
	}
	return res, nil
}

func (s *attendanceService) record(ctx context.Context, code string, tap Tap) (*Result, error) {
	student, err := s.store.StudentByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}

	if tap.Recorder.Role == repo.RoleTeacher {
		gk, err := s.store.IsGatekeeper(ctx, tap.Recorder.ID)
		if err != nil {
			return nil, fmt.Errorf("check gate duty: %w", err)
		}
		if !gk {
			return nil, ErrNotGatekeeper
		}
	}

	day := calendar.Day(tap.At, s.loc)
	check, err := s.calendar.CheckDay(ctx, day, student.GradeLevel)
	if err != nil {
		return nil, fmt.Errorf("check school day: %w", err)
	}
	if !check.SchoolDay {
		return nil, ErrSchoolDayBlocked
	}

	times, err := s.settings.TapTimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tap times: %w", err)
	}
	rules, err := RulesFrom(times, s.grace)
	if err != nil {
		return nil, err
	}

	obs := Observation{
		CurrentStatus: student.CurrentStatus,
		Grade:         student.GradeLevel,
		Clock:         Clock(tap.At, s.loc),
	}
	if obs.CurrentStatus == repo.StudentOut {
		if obs.OpenEntry, err = s.store.HasOpenEntry(ctx, student.ID, day); err != nil {
			return nil, fmt.Errorf("check open entry: %w", err)
		}
	}
	dec, err := Classify(obs, rules)
	if err != nil {
		return nil, err
	}

	var recordedBy *uuid.UUID
	if tap.Recorder.ID != uuid.Nil {
		recordedBy = &tap.Recorder.ID
	}

	var (
		row      repo.Attendance
		notified []repo.Notification
	)
	err = s.store.InTx(ctx, func(q Tx) error {
		var err error
		row, err = q.InsertAttendance(ctx, repo.NewAttendance{
			StudentID:  student.ID,
			Status:     dec.Status,
			EntryType:  dec.EntryType,
			Session:    dec.Session,
			Method:     tap.Method,
			TapTime:    tap.At.UTC(),
			TapDate:    day,
			Remarks:    dec.Remarks,
			RecordedBy: recordedBy,
		})
		if err != nil {
			return err
		}
		if err := q.SetStudentStatus(ctx, student.ID, student.CurrentStatus, dec.NextStatus); err != nil {
			return err
		}

		parents, err := q.ParentIDs(ctx, student.ID)
		if err != nil {
			return err
		}
		verb, action := notification.VerbAttendanceEntry, audit.ActionGateEntry
		if dec.EntryType == repo.EntryTypeExit {
			verb, action = notification.VerbAttendanceExit, audit.ActionGateExit
		}
		notified, err = q.InsertNotifications(ctx, notification.Fanout(recordedBy, verb, notification.Object{
			StudentID: student.ID,
			FullName:  student.FullName,
			Remarks:   dec.Remarks,
			Time:      tap.At.UTC().Format(time.RFC3339),
			Status:    dec.Status,
		}, parents))
		if err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(tap.Recorder.ID, action, "attendance", row.ID, map[string]any{
			"student_name": student.FullName,
			"status":       dec.Status,
			"remarks":      dec.Remarks,
		}))
	})
	switch {
	case errors.Is(err, repo.ErrOpenEntryExists):
		return nil, ErrAlreadyEntered
	case errors.Is(err, repo.ErrStaleStatus):
		return nil, ErrConcurrentTap
	case err != nil:
		return nil, fmt.Errorf("record tap: %w", err)
	}

	s.bus.PublishNotifications(ctx, notified)
	student.CurrentStatus = dec.NextStatus
	return &Result{Attendance: row, Student: student}, nil
}

// ---------------------------------------------------------------------------
// Offline sync
// ---------------------------------------------------------------------------

// orderScans returns scans sorted by capture time. Equal timestamps keep
// their queue order.
func orderScans(scans []OfflineScan) []OfflineScan {
	out := slices.Clone(scans)
	slices.SortStableFunc(out, func(a, b OfflineScan) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

func (s *attendanceService) Sync(ctx context.Context, rec Recorder, scans []OfflineScan) ([]SyncResult, error) {
	if len(scans) == 0 {
		return nil, ErrEmptySync
	}
	if len(scans) > MaxSyncBatch {
		return nil, ErrTooManyScans
	}

	results := make([]SyncResult, 0, len(scans))
	for _, scan := range orderScans(scans) {
		if scan.Timestamp.IsZero() {
			results = append(results, SyncResult{ID: scan.ID, Error: ErrMissingTimestamp.Error()})
			s.metrics.OfflineScan(ctx, false)
			continue
		}
		res, err := s.ProcessTap(ctx, Tap{
			Code:     scan.StudentID,
			At:       scan.Timestamp,
			Method:   repo.MethodOffline,
			Recorder: rec,
		})
		s.metrics.OfflineScan(ctx, err == nil)
		if err != nil {
			slog.WarnContext(ctx, "attendance: offline scan failed",
				"scan_id", scan.ID, "code", scan.StudentID, "at", scan.Timestamp, "err", err)
			results = append(results, SyncResult{ID: scan.ID, Error: err.Error()})
			continue
		}
		results = append(results, SyncResult{ID: scan.ID, OK: true, Attendance: &res.Attendance})
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (s *attendanceService) List(ctx context.Context, f repo.AttendanceFilter, page repo.Page) ([]repo.Attendance, error) {
	rows, err := s.store.ListAttendance(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	if rows == nil {
		rows = []repo.Attendance{}
	}
	return rows, nil
}

func (s *attendanceService) Reconcile(ctx context.Context, studentID uuid.UUID) (string, error) {
	var status string
	err := s.store.InTx(ctx, func(q Tx) error {
		var err error
		if status, err = q.DerivedStatus(ctx, studentID, calendar.Day(s.now(), s.loc)); err != nil {
			return err
		}
		return q.ForceStudentStatus(ctx, studentID, status)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrStudentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reconcile status: %w", err)
	}
	return status, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, ErrDuplicateScan):
		return "duplicate"
	case errors.Is(err, ErrStudentNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyEntered):
		return "already_entered"
	case errors.Is(err, ErrConcurrentTap):
		return "concurrent"
	case errors.Is(err, ErrSchoolDayBlocked):
		return "blocked_day"
	case errors.Is(err, ErrNotGatekeeper):
		return "not_gatekeeper"
	default:
		return "error"
	}
}
