package student

import "errors"

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidCode     = errors.New("invalid student ID format")
	ErrCodeExhausted   = errors.New("could not allocate a unique student ID")
	ErrPhotoTooLarge   = errors.New("photo exceeds the upload limit")
	ErrPhotoInvalid    = errors.New("photo is not a readable image")
	ErrNotParent       = errors.New("profile is not a parent")
	ErrLinkNotFound    = errors.New("parent is not linked to this student")
	ErrClassNotFound   = errors.New("class not found")
	ErrStorageDisabled = errors.New("object storage is not configured")
)
