package attendance

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/settings"
	"github.com/educare/track_backend/pkg/validate"
)

const (
	noon = 12 * 60

	DefaultLateExitGrace = 30 * time.Minute
)

// Remarks stored on attendance rows.
const (
	RemarkMorningAbsent = "First scan is afternoon (Morning Absent)"
	RemarkLate          = "Entered Late"
	RemarkOnTime        = "On Time Entry"
	RemarkEarlyExit     = "Early Dismissal"
	RemarkLateExit      = "Late Exit"
	RemarkRegularExit   = "Regular Exit"
)

// Tier names match the keys of the tap_times setting.
const (
	TierKinder = "kinder"
	TierG13    = "g13"
	TierG46    = "g46"
	TierJHS    = "jhs"
	TierSHS    = "shs"
)

// Rules are the tap times in minutes after midnight.
type Rules struct {
	Arrival       int
	Dismissal     map[string]int
	LateExitGrace time.Duration
}

// RulesFrom parses tap times. grace <= 0 selects DefaultLateExitGrace.
func RulesFrom(t settings.TapTimes, grace time.Duration) (Rules, error) {
	r := Rules{Dismissal: make(map[string]int, 5), LateExitGrace: grace}
	if r.LateExitGrace <= 0 {
		r.LateExitGrace = DefaultLateExitGrace
	}
	var err error
	if r.Arrival, err = validate.ParseClock(t.Arrival); err != nil {
		return Rules{}, ErrInvalidTapTimes
	}
	for tier, v := range map[string]string{
		TierKinder: t.Kinder, TierG13: t.G13, TierG46: t.G46, TierJHS: t.JHS, TierSHS: t.SHS,
	} {
		m, err := validate.ParseClock(v)
		if err != nil {
			return Rules{}, ErrInvalidTapTimes
		}
		r.Dismissal[tier] = m
	}
	return r, nil
}

// Observation is what the classifier needs to know about one tap.
type Observation struct {
	CurrentStatus string
	Grade         string
	// Clock is the tap's local time in minutes after midnight.
	Clock int
	// OpenEntry is set when a same-day entry other than a morning
	// absence already exists.
	OpenEntry bool
}

// Decision is the classified tap.
type Decision struct {
	EntryType  string
	Status     string
	Session    string
	Remarks    string
	NextStatus string
}

// Clock returns t's minutes after midnight in loc.
func Clock(t time.Time, loc *time.Location) int {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Hour()*60 + t.Minute()
}

// TierFor maps a grade level to its dismissal tier. "Kinder" (or "K") is its
// own tier; otherwise the first number decides and anything unreadable
// falls through to senior high.
func TierFor(grade string) string {
	g := strings.ToLower(strings.TrimSpace(grade))
	if strings.HasPrefix(g, "kinder") || g == "k" {
		return TierKinder
	}
	n, ok := firstNumber(g)
	switch {
	case !ok:
		return TierSHS
	case n <= 3:
		return TierG13
	case n <= 6:
		return TierG46
	case n <= 10:
		return TierJHS
	default:
		return TierSHS
	}
}

func firstNumber(s string) (int, bool) {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	return n, err == nil
}

// Classify decides entry or exit, the attendance status and the remark for
// one tap. It touches no storage.
func Classify(o Observation, r Rules) (Decision, error) {
	d := Decision{Session: repo.SessionAM}
	if o.Clock >= noon {
		d.Session = repo.SessionPM
	}

	if o.CurrentStatus == repo.StudentOut {
		d.EntryType = repo.EntryTypeEntry
		d.NextStatus = repo.StudentPresent
		switch {
		case o.OpenEntry:
			return Decision{}, ErrAlreadyEntered
		case o.Clock >= noon:
			d.Status, d.Remarks = repo.StatusMorningAbsent, RemarkMorningAbsent
		case o.Clock > r.Arrival:
			d.Status, d.Remarks = repo.StatusLate, RemarkLate
		default:
			d.Status, d.Remarks = repo.StatusPresent, RemarkOnTime
		}
		return d, nil
	}

	d.EntryType = repo.EntryTypeExit
	d.NextStatus = repo.StudentOut
	dismissal := r.Dismissal[TierFor(o.Grade)]
	switch {
	case o.Clock < dismissal:
		d.Status, d.Remarks = repo.StatusEarlyExit, RemarkEarlyExit
	case time.Duration(o.Clock-dismissal)*time.Minute > r.LateExitGrace:
		d.Status, d.Remarks = repo.StatusPresent, RemarkLateExit
	default:
		d.Status, d.Remarks = repo.StatusPresent, RemarkRegularExit
	}
	return d, nil
}
