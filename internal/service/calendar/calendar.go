package calendar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/audit"
)

// Calendar entry types. Only holiday and suspension close the gate.
const (
	TypeHoliday    = "holiday"
	TypeSuspension = "suspension"
	TypeBreak      = "break"
	TypeEmergency  = "emergency"
	TypeShortened  = "shortened"
	TypeEvent      = "event"
)

var validTypes = []string{TypeHoliday, TypeSuspension, TypeBreak, TypeEmergency, TypeShortened, TypeEvent}

// DefaultTimezone is the school's zone when school.timezone is unset.
const DefaultTimezone = "Asia/Manila"

// LoadLocation resolves the school time zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// ---------------------------------------------------------------------------
// Pure helpers
// ---------------------------------------------------------------------------

// Day truncates t to its calendar date in loc, expressed as UTC midnight
// to line up with Postgres DATE values.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Blocks reports whether e closes the gate for grade on day.
func Blocks(e repo.CalendarEntry, day time.Time, grade string) bool {
	if e.Type != TypeHoliday && e.Type != TypeSuspension {
		return false
	}
	d := Day(day, nil)
	if d.Before(Day(e.StartDate, nil)) || d.After(Day(e.EndDate, nil)) {
		return false
	}
	scope := strings.TrimSpace(e.GradeScope)
	return scope == "" || strings.EqualFold(scope, repo.GradeScopeAll) ||
		strings.EqualFold(scope, strings.TrimSpace(grade))
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Check is the answer to "may attendance be recorded on this day".
type Check struct {
	SchoolDay bool                `json:"school_day"`
	BlockedBy *repo.CalendarEntry `json:"blocked_by,omitempty"`
}

type Input struct {
	Title      string
	Type       string
	StartDate  time.Time
	EndDate    time.Time
	GradeScope string
	Notes      string
}

func (in Input) normalize() (repo.CalendarInput, error) {
	out := repo.CalendarInput{
		Title:      strings.TrimSpace(in.Title),
		Type:       strings.ToLower(strings.TrimSpace(in.Type)),
		StartDate:  Day(in.StartDate, nil),
		EndDate:    Day(in.EndDate, nil),
		GradeScope: strings.TrimSpace(in.GradeScope),
		Notes:      strings.TrimSpace(in.Notes),
	}
	if out.Title == "" {
		return out, ErrTitleRequired
	}
	if !slices.Contains(validTypes, out.Type) {
		return out, ErrInvalidType
	}
	if out.StartDate.After(out.EndDate) {
		return out, ErrInvalidRange
	}
	if out.GradeScope == "" {
		out.GradeScope = repo.GradeScopeAll
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// CheckDay fails closed: a lookup error is returned, never treated as a
	// school day.
	CheckDay(ctx context.Context, day time.Time, grade string) (*Check, error)
	List(ctx context.Context, from, to time.Time) ([]repo.CalendarEntry, error)
	Create(ctx context.Context, actor uuid.UUID, in Input) (*repo.CalendarEntry, error)
	Update(ctx context.Context, actor, id uuid.UUID, in Input) (*repo.CalendarEntry, error)
	Delete(ctx context.Context, actor, id uuid.UUID) error
}

type calendarService struct {
	store *repo.Store
}

func New(store *repo.Store) Service {
	return &calendarService{store: store}
}

func (s *calendarService) CheckDay(ctx context.Context, day time.Time, grade string) (*Check, error) {
	d := Day(day, nil)
	entries, err := s.store.CalendarEntriesOverlapping(ctx, d, d)
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}
	for i := range entries {
		if Blocks(entries[i], d, grade) {
			return &Check{SchoolDay: false, BlockedBy: &entries[i]}, nil
		}
	}
	return &Check{SchoolDay: true}, nil
}

func (s *calendarService) List(ctx context.Context, from, to time.Time) ([]repo.CalendarEntry, error) {
	if from.After(to) {
		return nil, ErrInvalidRange
	}
	entries, err := s.store.CalendarEntriesOverlapping(ctx, Day(from, nil), Day(to, nil))
	if err != nil {
		return nil, fmt.Errorf("list calendar: %w", err)
	}
	if entries == nil {
		entries = []repo.CalendarEntry{}
	}
	return entries, nil
}

func (s *calendarService) Create(ctx context.Context, actor uuid.UUID, in Input) (*repo.CalendarEntry, error) {
	ci, err := in.normalize()
	if err != nil {
		return nil, err
	}
	var e repo.CalendarEntry
	err = s.store.InTx(ctx, func(q *repo.Queries) error {
		if e, err = q.CreateCalendarEntry(ctx, ci, actor); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionCalendarChanged, "school_calendar", e.ID,
			map[string]any{"op": "create", "title": e.Title, "type": e.Type}))
	})
	if err != nil {
		return nil, fmt.Errorf("create calendar entry: %w", err)
	}
	return &e, nil
}

func (s *calendarService) Update(ctx context.Context, actor, id uuid.UUID, in Input) (*repo.CalendarEntry, error) {
	ci, err := in.normalize()
	if err != nil {
		return nil, err
	}
	var e repo.CalendarEntry
	err = s.store.InTx(ctx, func(q *repo.Queries) error {
		if e, err = q.UpdateCalendarEntry(ctx, id, ci); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionCalendarChanged, "school_calendar", id,
			map[string]any{"op": "update", "title": e.Title, "type": e.Type}))
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update calendar entry: %w", err)
	}
	return &e, nil
}

func (s *calendarService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	err := s.store.InTx(ctx, func(q *repo.Queries) error {
		if err := q.DeleteCalendarEntry(ctx, id); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionCalendarChanged, "school_calendar", id,
			map[string]any{"op": "delete"}))
	})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrEntryNotFound
	}
	return err
}
