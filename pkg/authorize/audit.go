package authorize

import (
	"context"
	"log/slog"
	"time"

	casbin "github.com/casbin/casbin/v2"
)

// AuditedAuthorization logs each decision and policy mutation of the wrapped
// IAuthorization. Allowed decisions log at debug, denials at warn.
type AuditedAuthorization struct {
	inner IAuthorization
	log   *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedAuthorization{inner: inner, log: logger.With(slog.String("component", "authz"))}
}

func decisionLevel(allowed bool, err error) slog.Level {
	switch {
	case err != nil:
		return slog.LevelError
	case allowed:
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

func (a *AuditedAuthorization) Enforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) (bool, error) {
	began := time.Now()
	allowed, err := a.inner.Enforce(ctx, subject, domain, object, action)

	level := decisionLevel(allowed, err)
	if !a.log.Enabled(ctx, level) {
		return allowed, err
	}
	attrs := []slog.Attr{
		slog.String("subject", string(subject)),
		slog.String("domain", string(domain)),
		slog.String("resource", string(object)),
		slog.String("action", string(action)),
		slog.Bool("allowed", allowed),
		slog.Duration("took", time.Since(began)),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("err", err))
	}
	a.log.LogAttrs(ctx, level, "authz decision", attrs...)
	return allowed, err
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error {
	return mustEnforce(ctx, a, subject, domain, object, action)
}

func (a *AuditedAuthorization) AddRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	changed, err := a.inner.AddRoleForUserInDomain(ctx, subject, role, domain)
	a.mutation(ctx, "grant role", changed, err, roleAttrs(subject, role, domain)...)
	return changed, err
}

func (a *AuditedAuthorization) RemoveRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	changed, err := a.inner.RemoveRoleForUserInDomain(ctx, subject, role, domain)
	a.mutation(ctx, "revoke role", changed, err, roleAttrs(subject, role, domain)...)
	return changed, err
}

func (a *AuditedAuthorization) GetRolesForUserInDomain(ctx context.Context, subject GroupSubject, domain Domain) ([]Role, error) {
	return a.inner.GetRolesForUserInDomain(ctx, subject, domain)
}

func (a *AuditedAuthorization) AddPermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	changed, err := a.inner.AddPermission(ctx, role, domain, object, action, effect)
	a.mutation(ctx, "add permission", changed, err, permissionAttrs(role, domain, object, action, effect)...)
	return changed, err
}

func (a *AuditedAuthorization) RemovePermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	changed, err := a.inner.RemovePermission(ctx, role, domain, object, action, effect)
	a.mutation(ctx, "remove permission", changed, err, permissionAttrs(role, domain, object, action, effect)...)
	return changed, err
}

func (a *AuditedAuthorization) Raw() *casbin.DistributedEnforcer {
	return a.inner.Raw()
}

func (a *AuditedAuthorization) mutation(ctx context.Context, op string, changed bool, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Bool("changed", changed))
	if err != nil {
		a.log.LogAttrs(ctx, slog.LevelError, "authz "+op, append(attrs, slog.Any("err", err))...)
		return
	}
	a.log.LogAttrs(ctx, slog.LevelInfo, "authz "+op, attrs...)
}

func roleAttrs(subject GroupSubject, role Role, domain Domain) []slog.Attr {
	return []slog.Attr{
		slog.String("subject", string(subject)),
		slog.String("role", string(role)),
		slog.String("domain", string(domain)),
	}
}

func permissionAttrs(role Role, domain Domain, object Resource, action Action, effect PolicyEffect) []slog.Attr {
	return []slog.Attr{
		slog.String("role", string(role)),
		slog.String("domain", string(domain)),
		slog.String("resource", string(object)),
		slog.String("action", string(action)),
		slog.String("effect", string(effect)),
	}
}
