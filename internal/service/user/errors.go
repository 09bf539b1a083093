package user

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email address is already in use")
	ErrInvalidPhone       = errors.New("invalid phone number for the school region")
	ErrNotTeacher         = errors.New("gatekeeper flag applies to teachers only")
	ErrSelfDeactivation   = errors.New("admins cannot deactivate their own account")
)
