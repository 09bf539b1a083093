package attendance

import "errors"

var (
	ErrInvalidCode       = errors.New("invalid student id format")
	ErrStudentNotFound   = errors.New("student not found")
	ErrDuplicateScan     = errors.New("duplicate scan ignored")
	ErrAlreadyEntered    = errors.New("student already recorded as entered today")
	ErrConcurrentTap     = errors.New("student status changed by another scan, try again")
	ErrSchoolDayBlocked  = errors.New("attendance is blocked today (holiday/suspension)")
	ErrNotGatekeeper     = errors.New("teacher is not assigned gate duty")
	ErrInvalidMethod     = errors.New("method must be qr, offline or manual")
	ErrEmptySync         = errors.New("no scans to sync")
	ErrTooManyScans      = errors.New("too many scans in one sync request")
	ErrInvalidTapTimes   = errors.New("tap times are not valid HH:MM values")
	ErrFutureTimestamp   = errors.New("scan timestamp is in the future")
	ErrMissingTimestamp  = errors.New("scan timestamp is required")
)
