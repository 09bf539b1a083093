package calendar

import "errors"

var (
	ErrEntryNotFound = errors.New("calendar entry not found")
	ErrInvalidType   = errors.New("calendar type must be one of holiday, suspension, break, emergency, shortened, event")
	ErrInvalidRange  = errors.New("start_date must not be after end_date")
	ErrTitleRequired = errors.New("title is required")
)
