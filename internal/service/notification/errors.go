package notification

import "errors"

var (
	ErrNotFound          = errors.New("notification not found")
	ErrStreamUnavailable = errors.New("realtime stream is not available")
)
