package excuse

import "errors"

var (
	ErrExcuseNotFound     = errors.New("excuse letter not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrNotLinked          = errors.New("parent is not linked to this student")
	ErrNotAdviser         = errors.New("only the homeroom adviser can decide this letter")
	ErrForbidden          = errors.New("not allowed to view this letter")
	ErrInvalidDate        = errors.New("absent_date must be YYYY-MM-DD")
	ErrInvalidDecision    = errors.New("decision must be approved or rejected")
	ErrCommentRequired    = errors.New("a comment is required when rejecting")
	ErrAlreadyDecided     = errors.New("excuse letter was already decided")
	ErrAttachmentTooLarge = errors.New("attachment exceeds the upload limit")
	ErrAttachmentType     = errors.New("attachment must be a PDF or an image")
	ErrNoAttachment       = errors.New("excuse letter has no attachment")
	ErrStorageDisabled    = errors.New("object storage is not configured")
)
