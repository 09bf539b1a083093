package email

import "errors"

var (
	ErrDisabled       = errors.New("email: delivery is disabled")
	ErrInvalidMessage = errors.New("email: invalid message")
	ErrSMTP           = errors.New("email: smtp delivery failed")
)
