package reqctx

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Session is the authenticated caller as resolved from the authoritative
// store for the current request.
type Session struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Role      string
	FullName  string
	Email     string
}

// HasRole reports whether the caller holds one of roles.
func (s *Session) HasRole(roles ...string) bool {
	return s != nil && slices.Contains(roles, s.Role)
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, keySession, s)
}

// SessionFromContext returns nil, false for unauthenticated requests.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(keySession).(*Session)
	return s, ok && s != nil
}

// UserIDFromContext returns uuid.Nil, false when unauthenticated.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return s.UserID, true
}
