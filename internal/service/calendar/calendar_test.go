package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBlocks(t *testing.T) {
	holiday := repo.CalendarEntry{Type: TypeHoliday, StartDate: date(2026, 6, 12), EndDate: date(2026, 6, 12), GradeScope: "all"}
	suspension := repo.CalendarEntry{Type: TypeSuspension, StartDate: date(2026, 7, 1), EndDate: date(2026, 7, 3), GradeScope: "Grade 7"}
	event := repo.CalendarEntry{Type: TypeEvent, StartDate: date(2026, 6, 12), EndDate: date(2026, 6, 12), GradeScope: "all"}

	tests := []struct {
		name  string
		entry repo.CalendarEntry
		day   time.Time
		grade string
		want  bool
	}{
		{"holiday for everyone", holiday, date(2026, 6, 12), "Kinder", true},
		{"day after holiday", holiday, date(2026, 6, 13), "Kinder", false},
		{"suspension matching grade", suspension, date(2026, 7, 2), "Grade 7", true},
		{"suspension grade is case-insensitive", suspension, date(2026, 7, 3), "grade 7", true},
		{"suspension other grade", suspension, date(2026, 7, 2), "Grade 8", false},
		{"suspension first day", suspension, date(2026, 7, 1), "Grade 7", true},
		{"events never block", event, date(2026, 6, 12), "Grade 7", false},
		{"empty scope means all", repo.CalendarEntry{Type: TypeHoliday, StartDate: date(2026, 1, 1), EndDate: date(2026, 1, 1)}, date(2026, 1, 1), "Grade 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Blocks(tt.entry, tt.day, tt.grade); got != tt.want {
				t.Errorf("Blocks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDayUsesSchoolZone(t *testing.T) {
	manila, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 17:00 UTC on June 11 is already June 12 in Manila
	instant := time.Date(2026, 6, 11, 17, 0, 0, 0, time.UTC)
	if got := Day(instant, manila); !got.Equal(date(2026, 6, 12)) {
		t.Errorf("Day() = %v, want 2026-06-12", got)
	}
}

func TestInputNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr error
	}{
		{"ok defaults scope", Input{Title: "Foundation Day", Type: "Holiday", StartDate: date(2026, 3, 1), EndDate: date(2026, 3, 1)}, nil},
		{"missing title", Input{Type: TypeHoliday, StartDate: date(2026, 3, 1), EndDate: date(2026, 3, 1)}, ErrTitleRequired},
		{"bad type", Input{Title: "x", Type: "fiesta", StartDate: date(2026, 3, 1), EndDate: date(2026, 3, 1)}, ErrInvalidType},
		{"inverted range", Input{Title: "x", Type: TypeBreak, StartDate: date(2026, 3, 2), EndDate: date(2026, 3, 1)}, ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.in.normalize()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (out.GradeScope != repo.GradeScopeAll || out.Type != TypeHoliday) {
				t.Errorf("normalized = %+v", out)
			}
		})
	}
}

func TestCreateValidatesBeforeStore(t *testing.T) {
	_, err := New(nil).Create(context.Background(), uuid.New(), Input{Title: "", Type: TypeHoliday})
	if !errors.Is(err, ErrTitleRequired) {
		t.Errorf("err = %v", err)
	}
}
