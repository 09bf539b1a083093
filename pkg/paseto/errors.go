package pasetotoken

import (
	"errors"
	"fmt"
)

var (
	// ErrMisconfigured wraps every key or option problem found at startup.
	ErrMisconfigured = errors.New("paseto: misconfigured")
	// ErrInvalidToken wraps every reason a presented token was refused.
	ErrInvalidToken = errors.New("paseto: invalid token")
)

func misconfigured(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMisconfigured, fmt.Sprintf(format, args...))
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}
