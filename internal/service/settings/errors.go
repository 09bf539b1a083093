package settings

import "errors"

var (
	ErrInvalidClock = errors.New("tap times must be HH:MM (24-hour)")
	ErrInvalidValue = errors.New("invalid setting value")
)
