package terminal

import (
	"sync"
	"time"
)

// State is the scanner's position in idle -> capturing -> cooling-down -> idle.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateCoolingDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateCoolingDown:
		return "cooling-down"
	}
	return "unknown"
}

const (
	DefaultCooldownSuccess = 3 * time.Second
	DefaultCooldownError   = 2 * time.Second
	DefaultRepeatWindow    = 5 * time.Second
)

// Rejection says why a scan was not accepted.
type Rejection string

const (
	Accepted  Rejection = ""
	Busy      Rejection = "busy"
	Cooling   Rejection = "cooling down"
	Repeated  Rejection = "repeat of last scan"
	EmptyScan Rejection = "empty scan"
)

// Scanner gates raw scans so that one code is processed at a time and a
// badge held in front of the reader is not recorded twice.
type Scanner struct {
	mu sync.Mutex

	state         State
	cooldownUntil time.Time
	lastCode      string
	lastAccepted  time.Time

	success time.Duration
	failure time.Duration
	repeat  time.Duration
	now     func() time.Time
}

// NewScanner returns an idle scanner. Zero durations take the defaults.
func NewScanner(success, failure, repeat time.Duration) *Scanner {
	if success <= 0 {
		success = DefaultCooldownSuccess
	}
	if failure <= 0 {
		failure = DefaultCooldownError
	}
	if repeat <= 0 {
		repeat = DefaultRepeatWindow
	}
	return &Scanner{success: success, failure: failure, repeat: repeat, now: time.Now}
}

// State reports the current state, expiring a finished cooldown first.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()
	return s.state
}

// Begin tries to accept code. On success the scanner moves to capturing and
// the caller must call Finish.
func (s *Scanner) Begin(code string) Rejection {
	if code == "" {
		return EmptyScan
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()

	switch s.state {
	case StateCapturing:
		return Busy
	case StateCoolingDown:
		return Cooling
	}
	now := s.now()
	if code == s.lastCode && now.Sub(s.lastAccepted) < s.repeat {
		return Repeated
	}
	s.state = StateCapturing
	s.lastCode, s.lastAccepted = code, now
	return Accepted
}

// Finish ends a capture and starts the cooldown matching its outcome.
func (s *Scanner) Finish(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCapturing {
		return
	}
	d := s.failure
	if ok {
		d = s.success
	}
	s.state = StateCoolingDown
	s.cooldownUntil = s.now().Add(d)
}

func (s *Scanner) tick() {
	if s.state == StateCoolingDown && !s.now().Before(s.cooldownUntil) {
		s.state = StateIdle
	}
}
