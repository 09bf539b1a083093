package authorize

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/educare/track_backend/pkg/reqctx"
)

var ErrNoSubjectInContext = errors.New("no subject found in context")

// SubjectFromContext returns the casbin subject of the resolved session.
func SubjectFromContext(ctx context.Context) (GroupSubject, error) {
	s, ok := reqctx.SessionFromContext(ctx)
	if !ok || s.UserID == uuid.Nil {
		return "", ErrNoSubjectInContext
	}
	return GroupSubject(s.UserID.String()), nil
}

// EnforceSession checks the session in ctx against resource/action in the
// sys domain. It returns ErrNoSubjectInContext for anonymous contexts.
func EnforceSession(ctx context.Context, auth IAuthorization, object Resource, action Action) error {
	subject, err := SubjectFromContext(ctx)
	if err != nil {
		return err
	}
	return auth.MustEnforce(ctx, subject, DomainSys, object, action)
}
