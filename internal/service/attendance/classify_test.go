package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/calendar"
	"github.com/educare/track_backend/internal/service/settings"
)

func defaultRules(t *testing.T) Rules {
	t.Helper()
	r, err := RulesFrom(settings.BuiltinTapTimes, 0)
	if err != nil {
		t.Fatalf("RulesFrom: %v", err)
	}
	return r
}

func hm(h, m int) int { return h*60 + m }

func TestClassifyEntry(t *testing.T) {
	rules := defaultRules(t)

	tests := []struct {
		name       string
		clock      int
		openEntry  bool
		wantStatus string
		wantRemark string
		wantSess   string
		wantErr    error
	}{
		{"before cutoff", hm(7, 10), false, repo.StatusPresent, RemarkOnTime, repo.SessionAM, nil},
		{"exactly at cutoff", hm(7, 30), false, repo.StatusPresent, RemarkOnTime, repo.SessionAM, nil},
		{"one minute late", hm(7, 31), false, repo.StatusLate, RemarkLate, repo.SessionAM, nil},
		{"late morning", hm(11, 59), false, repo.StatusLate, RemarkLate, repo.SessionAM, nil},
		{"noon is afternoon", hm(12, 0), false, repo.StatusMorningAbsent, RemarkMorningAbsent, repo.SessionPM, nil},
		{"afternoon first scan", hm(13, 5), false, repo.StatusMorningAbsent, RemarkMorningAbsent, repo.SessionPM, nil},
		{"already entered", hm(8, 0), true, "", "", "", ErrAlreadyEntered},
		{"already entered in afternoon", hm(14, 0), true, "", "", "", ErrAlreadyEntered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Classify(Observation{
				CurrentStatus: repo.StudentOut,
				Grade:         "7",
				Clock:         tt.clock,
				OpenEntry:     tt.openEntry,
			}, rules)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if d.EntryType != repo.EntryTypeEntry {
				t.Errorf("EntryType = %q, want entry", d.EntryType)
			}
			if d.Status != tt.wantStatus || d.Remarks != tt.wantRemark || d.Session != tt.wantSess {
				t.Errorf("got (%q, %q, %q), want (%q, %q, %q)",
					d.Status, d.Remarks, d.Session, tt.wantStatus, tt.wantRemark, tt.wantSess)
			}
			if d.NextStatus != repo.StudentPresent {
				t.Errorf("NextStatus = %q, want present", d.NextStatus)
			}
		})
	}
}

func TestClassifyExit(t *testing.T) {
	rules := defaultRules(t)

	tests := []struct {
		name       string
		current    string
		grade      string
		clock      int
		wantStatus string
		wantRemark string
	}{
		{"kinder before noon", repo.StudentPresent, "Kinder", hm(11, 0), repo.StatusEarlyExit, RemarkEarlyExit},
		{"kinder at dismissal", repo.StudentPresent, "Kinder", hm(12, 0), repo.StatusPresent, RemarkRegularExit},
		{"grade 2 early", repo.StudentPresent, "2", hm(12, 59), repo.StatusEarlyExit, RemarkEarlyExit},
		{"grade 3 within grace", repo.StudentPresent, "Grade 3", hm(13, 30), repo.StatusPresent, RemarkRegularExit},
		{"grade 3 past grace", repo.StudentPresent, "Grade 3", hm(13, 31), repo.StatusPresent, RemarkLateExit},
		{"grade 5 regular", repo.StudentPresent, "5", hm(15, 10), repo.StatusPresent, RemarkRegularExit},
		{"grade 10 early", repo.StudentPresent, "10", hm(15, 59), repo.StatusEarlyExit, RemarkEarlyExit},
		{"grade 12 late exit", repo.StudentPresent, "12", hm(17, 1), repo.StatusPresent, RemarkLateExit},
		{"clinic student leaving", repo.StudentInClinic, "8", hm(10, 0), repo.StatusEarlyExit, RemarkEarlyExit},
		{"sent home student leaving", repo.StudentSentHome, "8", hm(10, 0), repo.StatusEarlyExit, RemarkEarlyExit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Classify(Observation{CurrentStatus: tt.current, Grade: tt.grade, Clock: tt.clock}, rules)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if d.EntryType != repo.EntryTypeExit {
				t.Errorf("EntryType = %q, want exit", d.EntryType)
			}
			if d.Status != tt.wantStatus || d.Remarks != tt.wantRemark {
				t.Errorf("got (%q, %q), want (%q, %q)", d.Status, d.Remarks, tt.wantStatus, tt.wantRemark)
			}
			if d.NextStatus != repo.StudentOut {
				t.Errorf("NextStatus = %q, want out", d.NextStatus)
			}
		})
	}
}

func TestClassifyExitIgnoresOpenEntry(t *testing.T) {
	d, err := Classify(Observation{
		CurrentStatus: repo.StudentPresent, Grade: "4", Clock: hm(15, 0), OpenEntry: true,
	}, defaultRules(t))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if d.EntryType != repo.EntryTypeExit {
		t.Errorf("EntryType = %q, want exit", d.EntryType)
	}
}

func TestClassifyUsesOverriddenTimes(t *testing.T) {
	times := settings.TapTimes{Arrival: "08:00"}.Merge(settings.BuiltinTapTimes)
	rules, err := RulesFrom(times, 10*time.Minute)
	if err != nil {
		t.Fatalf("RulesFrom: %v", err)
	}

	d, _ := Classify(Observation{CurrentStatus: repo.StudentOut, Grade: "1", Clock: hm(7, 45)}, rules)
	if d.Status != repo.StatusPresent {
		t.Errorf("07:45 with 08:00 cutoff = %q, want present", d.Status)
	}

	d, _ = Classify(Observation{CurrentStatus: repo.StudentPresent, Grade: "1", Clock: hm(13, 11)}, rules)
	if d.Remarks != RemarkLateExit {
		t.Errorf("13:11 with 10m grace = %q, want %q", d.Remarks, RemarkLateExit)
	}
}

func TestRulesFromRejectsBadClock(t *testing.T) {
	times := settings.BuiltinTapTimes
	times.JHS = "4pm"
	if _, err := RulesFrom(times, 0); !errors.Is(err, ErrInvalidTapTimes) {
		t.Errorf("err = %v, want ErrInvalidTapTimes", err)
	}
}

func TestTierFor(t *testing.T) {
	tests := map[string]string{
		"Kinder":   TierKinder,
		"kinder 2": TierKinder,
		"K":        TierKinder,
		"1":        TierG13,
		"Grade 3":  TierG13,
		"4":        TierG46,
		"Grade 6":  TierG46,
		"7":        TierJHS,
		"10":       TierJHS,
		"11":       TierSHS,
		"Grade 12": TierSHS,
		"":         TierSHS,
		"ALS":      TierSHS,
	}
	for grade, want := range tests {
		if got := TierFor(grade); got != want {
			t.Errorf("TierFor(%q) = %q, want %q", grade, got, want)
		}
	}
}

func TestClockUsesLocation(t *testing.T) {
	manila, err := calendar.LoadLocation("")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 23:15 UTC is 07:15 the next morning in Manila
	at := time.Date(2026, 6, 1, 23, 15, 0, 0, time.UTC)
	if got := Clock(at, manila); got != hm(7, 15) {
		t.Errorf("Clock() = %d, want %d", got, hm(7, 15))
	}
}

func TestOrderScans(t *testing.T) {
	base := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)
	in := []OfflineScan{
		{ID: "c", Timestamp: base.Add(2 * time.Minute)},
		{ID: "a", Timestamp: base},
		{ID: "b1", Timestamp: base.Add(time.Minute)},
		{ID: "b2", Timestamp: base.Add(time.Minute)},
	}
	got := orderScans(in)
	want := []string{"a", "b1", "b2", "c"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if in[0].ID != "c" {
		t.Error("orderScans modified its input")
	}
}

func ids(scans []OfflineScan) []string {
	out := make([]string, len(scans))
	for i, s := range scans {
		out[i] = s.ID
	}
	return out
}

func TestMemoryDeduper(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDeduper(5 * time.Second)
	base := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)
	const code = "EDU-2026-1234-AB12"

	claim := func(at time.Time) bool {
		t.Helper()
		ok, err := d.Claim(ctx, code, at)
		if err != nil {
			t.Fatalf("Claim: %v", err)
		}
		return ok
	}

	if !claim(base) {
		t.Fatal("first tap rejected")
	}
	if claim(base.Add(4 * time.Second)) {
		t.Error("tap 4s later accepted")
	}
	if claim(base.Add(-3 * time.Second)) {
		t.Error("replayed tap 3s earlier accepted")
	}
	if !claim(base.Add(5 * time.Second)) {
		t.Error("tap 5s later rejected")
	}
	if ok, _ := d.Claim(ctx, "EDU-2026-9999-ZZ99", base); !ok {
		t.Error("other student rejected")
	}

	if err := d.Release(ctx, code, base.Add(5*time.Second)); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !claim(base.Add(6 * time.Second)) {
		t.Error("tap after release rejected")
	}
}

func TestRejectReason(t *testing.T) {
	if got := rejectReason(ErrSchoolDayBlocked); got != "blocked_day" {
		t.Errorf("rejectReason = %q", got)
	}
	if got := rejectReason(errors.New("boom")); got != "error" {
		t.Errorf("rejectReason = %q", got)
	}
}
