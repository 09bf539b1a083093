package clinic

import "errors"

var (
	ErrPassNotFound       = errors.New("clinic pass not found")
	ErrVisitNotFound      = errors.New("clinic visit not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrInvalidCode        = errors.New("invalid student id format")
	ErrReasonRequired     = errors.New("reason is required")
	ErrRejectionRequired  = errors.New("a rejection reason is required")
	ErrInvalidDecision    = errors.New("decision must be return_to_class, rest_at_clinic or send_home")
	ErrPassNotPending     = errors.New("clinic pass is no longer pending")
	ErrNoApprovedPass     = errors.New("no approved clinic pass found for this student")
	ErrInvalidTransition  = errors.New("clinic visit is not in a state that allows this step")
	ErrNotIssuer          = errors.New("only the teacher who issued the pass can notify the parent")
	ErrStudentStatusMoved = errors.New("student status changed concurrently, try again")
)
