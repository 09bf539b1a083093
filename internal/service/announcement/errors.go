package announcement

import "errors"

var (
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrInvalidAudience      = errors.New("audience must be parents, teachers, guards, clinic or all")
	ErrForbidden            = errors.New("only teachers and admins can post announcements")
)
