// Package roster serves teachers' class work: weekly subject schedules, the
// per-subject attendance sheet with its session lock, and the homeroom view.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/audit"
	"github.com/educare/track_backend/internal/service/calendar"
	"github.com/educare/track_backend/pkg/validate"
)

const defaultEndTime = "17:00"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Caller identifies the account asking. Admins may act on any schedule.
type Caller struct {
	ID   uuid.UUID
	Role string
}

func (c Caller) isAdmin() bool { return c.Role == repo.RoleAdmin }

type ScheduleInput struct {
	SubjectCode string     `json:"subject_code" validate:"required,max=32"`
	TeacherID   *uuid.UUID `json:"teacher_id"`
	DayOfWeek   string     `json:"day_of_week" validate:"required,oneof=mon tue wed thu fri sat sun"`
	StartTime   string     `json:"start_time" validate:"required,hhmm"`
	EndTime     string     `json:"end_time" validate:"omitempty,hhmm"`
}

func (in ScheduleInput) normalize() (repo.NewSchedule, error) {
	in.SubjectCode = strings.ToUpper(strings.TrimSpace(in.SubjectCode))
	in.DayOfWeek = strings.ToLower(strings.TrimSpace(in.DayOfWeek))
	if in.EndTime == "" {
		in.EndTime = defaultEndTime
	}
	if err := validate.Struct(in); err != nil {
		return repo.NewSchedule{}, err
	}
	start, _ := validate.ParseClock(in.StartTime)
	end, _ := validate.ParseClock(in.EndTime)
	if start >= end {
		return repo.NewSchedule{}, ErrInvalidPeriod
	}
	return repo.NewSchedule{
		SubjectCode: in.SubjectCode,
		TeacherID:   in.TeacherID,
		DayOfWeek:   in.DayOfWeek,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
	}, nil
}

type MarkResult struct {
	Marks []repo.SubjectAttendance `json:"marks"`
	// Skipped lists students left untouched because they are in the clinic.
	Skipped []uuid.UUID `json:"skipped"`
}

type ValidationResult struct {
	Validation   repo.SessionValidation `json:"validation"`
	MarkedAbsent int                    `json:"marked_absent"`
	Filled       int                    `json:"filled"`
}

type HomeroomRow struct {
	Student repo.Student     `json:"student"`
	Latest  *repo.Attendance `json:"latest,omitempty"`
}

type Homeroom struct {
	Class repo.Class    `json:"class"`
	Rows  []HomeroomRow `json:"rows"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	UpsertSubject(ctx context.Context, code, name string) (*repo.Subject, error)
	ListSubjects(ctx context.Context) ([]repo.Subject, error)
	// ReplaceSchedules swaps a class's weekly periods, per semester when one
	// is given.
	ReplaceSchedules(ctx context.Context, actor, classID uuid.UUID, semester *string, in []ScheduleInput) ([]repo.ClassSchedule, error)
	ListSchedules(ctx context.Context, f repo.ScheduleFilter) ([]repo.ClassSchedule, error)

	// Sheet is the roster of one subject period on day with current marks
	// and the clinic and excuse flags.
	Sheet(ctx context.Context, caller Caller, scheduleID uuid.UUID, day time.Time) (*Sheet, error)
	Mark(ctx context.Context, caller Caller, scheduleID uuid.UUID, day time.Time, marks []MarkInput) (*MarkResult, error)
	// Validate locks the session of day; unmarked students are written as
	// absent (or clinic/excused when flagged).
	Validate(ctx context.Context, caller Caller, scheduleID uuid.UUID, day time.Time) (*ValidationResult, error)

	Homeroom(ctx context.Context, teacherID uuid.UUID, day time.Time) ([]Homeroom, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type rosterService struct {
	store    Store
	calendar calendar.Service
}

func New(store *repo.Store, cal calendar.Service) Service {
	return newService(pgStore{store}, cal)
}

func newService(store Store, cal calendar.Service) *rosterService {
	return &rosterService{store: store, calendar: cal}
}

func (s *rosterService) UpsertSubject(ctx context.Context, code, name string) (*repo.Subject, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, ErrSubjectRequired
	}
	sub, err := s.store.UpsertSubject(ctx, code, name)
	if err != nil {
		return nil, fmt.Errorf("upsert subject: %w", err)
	}
	return &sub, nil
}

func (s *rosterService) ListSubjects(ctx context.Context) ([]repo.Subject, error) {
	subs, err := s.store.ListSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	if subs == nil {
		subs = []repo.Subject{}
	}
	return subs, nil
}

func (s *rosterService) ReplaceSchedules(ctx context.Context, actor, classID uuid.UUID, semester *string, in []ScheduleInput) ([]repo.ClassSchedule, error) {
	periods := make([]repo.NewSchedule, 0, len(in))
	for _, p := range in {
		np, err := p.normalize()
		if err != nil {
			return nil, err
		}
		periods = append(periods, np)
	}
	if semester != nil {
		if v := strings.TrimSpace(*semester); v == "" {
			semester = nil
		} else {
			semester = &v
		}
	}

	var out []repo.ClassSchedule
	err := s.store.InTx(ctx, func(q Tx) error {
		if _, err := q.ClassByID(ctx, classID); err != nil {
			return err
		}
		var err error
		if out, err = q.ReplaceSchedules(ctx, classID, semester, periods); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionSchedulesReplaced, "class_schedules", classID,
			map[string]any{"periods": len(out), "semester": lo.FromPtr(semester)}))
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("replace schedules: %w", err)
	}
	return out, nil
}

func (s *rosterService) ListSchedules(ctx context.Context, f repo.ScheduleFilter) ([]repo.ClassSchedule, error) {
	out, err := s.store.ListSchedules(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	if out == nil {
		out = []repo.ClassSchedule{}
	}
	return out, nil
}

// session resolves and checks the schedule a caller works on for day.
func (s *rosterService) session(ctx context.Context, q Tx, caller Caller, scheduleID uuid.UUID, day time.Time) (repo.ClassSchedule, repo.Class, error) {
	sched, err := q.ScheduleByID(ctx, scheduleID)
	if errors.Is(err, repo.ErrNotFound) {
		return sched, repo.Class{}, ErrScheduleNotFound
	}
	if err != nil {
		return sched, repo.Class{}, err
	}
	if !caller.isAdmin() && (sched.TeacherID == nil || *sched.TeacherID != caller.ID) {
		return sched, repo.Class{}, ErrNotYourSchedule
	}
	if DayKey(day) != sched.DayOfWeek {
		return sched, repo.Class{}, ErrWrongDay
	}
	class, err := q.ClassByID(ctx, sched.ClassID)
	if errors.Is(err, repo.ErrNotFound) {
		return sched, class, ErrClassNotFound
	}
	if err != nil {
		return sched, class, err
	}
	check, err := s.calendar.CheckDay(ctx, day, class.GradeLevel)
	if err != nil {
		return sched, class, fmt.Errorf("check school day: %w", err)
	}
	if !check.SchoolDay {
		return sched, class, ErrNoClasses
	}
	return sched, class, nil
}

func (s *rosterService) state(ctx context.Context, q Tx, sched repo.ClassSchedule, day time.Time) (sheetState, error) {
	roster, err := q.ClassRoster(ctx, sched.ClassID)
	if err != nil {
		return sheetState{}, err
	}
	ids := lo.Map(roster, func(st repo.Student, _ int) uuid.UUID { return st.ID })
	marks, err := q.SubjectMarks(ctx, sched.SubjectCode, day, ids)
	if err != nil {
		return sheetState{}, err
	}
	inClinic, err := q.InClinicStudents(ctx, ids)
	if err != nil {
		return sheetState{}, err
	}
	excused, err := q.ExcusedStudents(ctx, ids, day)
	if err != nil {
		return sheetState{}, err
	}
	return newSheetState(roster, marks, inClinic, excused), nil
}

func (s *rosterService) validated(ctx context.Context, q Tx, scheduleID uuid.UUID, day time.Time) (bool, error) {
	_, err := q.SessionValidation(ctx, scheduleID, day)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *rosterService) Sheet(ctx context.Context, caller Caller, scheduleID uuid.UUID, day time.Time) (*Sheet, error) {
	day = calendar.Day(day, nil)
	sched, class, err := s.session(ctx, s.store, caller, scheduleID, day)
	if err != nil {
		return nil, sessionError("load sheet", err)
	}
	st, err := s.state(ctx, s.store, sched, day)
	if err != nil {
		return nil, fmt.Errorf("load sheet: %w", err)
	}
	locked, err := s.validated(ctx, s.store, sched.ID, day)
	if err != nil {
		return nil, fmt.Errorf("load sheet: %w", err)
	}
	return &Sheet{
		Schedule:  sched,
		Class:     class,
		Date:      day.Format(time.DateOnly),
		Validated: locked,
		Rows:      st.rows(),
	}, nil
}

func (s *rosterService) Mark(ctx context.Context, caller Caller, scheduleID uuid.UUID, day time.Time, marks []MarkInput) (*MarkResult, error) {
	day = calendar.Day(day, nil)
	res := &MarkResult{}
	err := s.store.InTx(ctx, func(q Tx) error {
		sched, class, err := s.session(ctx, q, caller, scheduleID, day)
		if err != nil {
			return err
		}
		locked, err := s.validated(ctx, q, sched.ID, day)
		if err != nil {
			return err
		}
		if locked {
			return ErrSessionLocked
		}
		st, err := s.state(ctx, q, sched, day)
		if err != nil {
			return err
		}
		writes, skipped, err := st.planMarks(marks)
		if err != nil {
			return err
		}
		res.Skipped = skipped
		if res.Marks, err = q.UpsertSubjectMarks(ctx, sched.SubjectCode, day, caller.ID, writes); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(caller.ID, audit.ActionSubjectMarked, "class_schedules", sched.ID,
			map[string]any{
				"subject":  sched.SubjectCode,
				"class_id": class.ID,
				"date":     day.Format(time.DateOnly),
				"marked":   len(writes),
				"skipped":  len(skipped),
			}))
	})
	if err != nil {
		return nil, sessionError("mark subject attendance", err)
	}
	if res.Marks == nil {
		res.Marks = []repo.SubjectAttendance{}
	}
	if res.Skipped == nil {
		res.Skipped = []uuid.UUID{}
	}
	return res, nil
}

func (s *rosterService) Validate(ctx context.Context, caller Caller, scheduleID uuid.UUID, day time.Time) (*ValidationResult, error) {
	day = calendar.Day(day, nil)
	res := &ValidationResult{}
	err := s.store.InTx(ctx, func(q Tx) error {
		sched, class, err := s.session(ctx, q, caller, scheduleID, day)
		if err != nil {
			return err
		}
		st, err := s.state(ctx, q, sched, day)
		if err != nil {
			return err
		}
		fill := st.planUnmarked()
		res.Filled = len(fill)
		res.MarkedAbsent = lo.CountBy(fill, func(m repo.NewSubjectMark) bool { return m.Status == repo.MarkAbsent })
		if res.Validation, err = q.InsertValidation(ctx, sched.ID, day, caller.ID); err != nil {
			return err
		}
		if _, err := q.UpsertSubjectMarks(ctx, sched.SubjectCode, day, caller.ID, fill); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(caller.ID, audit.ActionSessionValidated, "attendance_validations", sched.ID,
			map[string]any{
				"subject":       sched.SubjectCode,
				"class_id":      class.ID,
				"date":          day.Format(time.DateOnly),
				"student_count": len(st.roster),
				"marked_absent": res.MarkedAbsent,
			}))
	})
	if err != nil {
		return nil, sessionError("validate session", err)
	}
	return res, nil
}

func (s *rosterService) Homeroom(ctx context.Context, teacherID uuid.UUID, day time.Time) ([]Homeroom, error) {
	day = calendar.Day(day, nil)
	classes, err := s.store.ClassesByAdviser(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("load homeroom classes: %w", err)
	}
	out := make([]Homeroom, 0, len(classes))
	for _, c := range classes {
		roster, err := s.store.ClassRoster(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("load homeroom roster: %w", err)
		}
		ids := lo.Map(roster, func(st repo.Student, _ int) uuid.UUID { return st.ID })
		latest, err := s.store.LatestAttendance(ctx, ids, day)
		if err != nil {
			return nil, fmt.Errorf("load homeroom attendance: %w", err)
		}
		byStudent := lo.KeyBy(latest, func(a repo.Attendance) uuid.UUID { return a.StudentID })
		rows := make([]HomeroomRow, 0, len(roster))
		for _, st := range roster {
			row := HomeroomRow{Student: st}
			if a, ok := byStudent[st.ID]; ok {
				row.Latest = &a
			}
			rows = append(rows, row)
		}
		out = append(out, Homeroom{Class: c, Rows: rows})
	}
	return out, nil
}

func sessionError(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrSessionValidated):
		return ErrSessionLocked
	case errors.Is(err, ErrScheduleNotFound), errors.Is(err, ErrClassNotFound),
		errors.Is(err, ErrNotYourSchedule), errors.Is(err, ErrWrongDay),
		errors.Is(err, ErrNoClasses), errors.Is(err, ErrSessionLocked),
		errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrNotInClass):
		return err
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
