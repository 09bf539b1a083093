package roster

import "errors"

var (
	ErrScheduleNotFound = errors.New("class schedule not found")
	ErrClassNotFound    = errors.New("class not found")
	ErrNotYourSchedule  = errors.New("schedule belongs to another teacher")
	ErrWrongDay         = errors.New("schedule does not meet on this day")
	ErrNoClasses        = errors.New("no classes on this day (holiday/suspension)")
	ErrSessionLocked    = errors.New("session already validated")
	ErrInvalidStatus    = errors.New("status must be present, late, absent or excused_absent")
	ErrNotInClass       = errors.New("student is not enrolled in this class")
	ErrInvalidPeriod    = errors.New("start_time must be before end_time")
	ErrSubjectRequired  = errors.New("subject code and name are required")
)
