package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the baseline school RBAC matrix. Admins are covered by
// the enforcer bypass and the wildcard row below.
var DefaultPolicies = []PermissionPolicy{
	{RoleAdmin, DomainSys, WildcardResource, WildcardAction, EffectAllow},

	// teachers: gate duty, clinic referrals, parent approvals, excuse review,
	// subject roll call
	{RoleTeacher, DomainSys, ResourceGateTap, ActionCreate, EffectAllow},
	{RoleTeacher, DomainSys, ResourceStudent, ActionRead, EffectAllow},
	{RoleTeacher, DomainSys, ResourceAttendance, ActionRead, EffectAllow},
	{RoleTeacher, DomainSys, ResourceClinicPass, ActionCreate, EffectAllow},
	{RoleTeacher, DomainSys, ResourceClinicPass, ActionRead, EffectAllow},
	{RoleTeacher, DomainSys, ResourceClinicVisit, ActionRead, EffectAllow},
	{RoleTeacher, DomainSys, ResourceClinicVisit, ActionApprove, EffectAllow},
	{RoleTeacher, DomainSys, ResourceExcuseLetter, ActionRead, EffectAllow},
	{RoleTeacher, DomainSys, ResourceExcuseLetter, ActionApprove, EffectAllow},
	{RoleTeacher, DomainSys, ResourceAnnouncement, ActionCreate, EffectAllow},
	{RoleTeacher, DomainSys, ResourceAnnouncement, ActionRead, EffectAllow},
	{RoleTeacher, DomainSys, ResourceCalendar, ActionRead, EffectAllow},
	{RoleTeacher, DomainSys, ResourceSchedule, ActionRead, EffectAllow},
	{RoleTeacher, DomainSys, ResourceSubjectAttendance, ActionRead, EffectAllow},
	{RoleTeacher, DomainSys, ResourceSubjectAttendance, ActionCreate, EffectAllow},
	{RoleTeacher, DomainSys, ResourceSubjectAttendance, ActionApprove, EffectAllow},

	{RoleGuard, DomainSys, ResourceGateTap, ActionCreate, EffectAllow},
	{RoleGuard, DomainSys, ResourceStudent, ActionRead, EffectAllow},
	{RoleGuard, DomainSys, ResourceAttendance, ActionRead, EffectAllow},
	{RoleGuard, DomainSys, ResourceAnnouncement, ActionRead, EffectAllow},
	{RoleGuard, DomainSys, ResourceCalendar, ActionRead, EffectAllow},

	{RoleClinic, DomainSys, ResourceClinicPass, ActionRead, EffectAllow},
	{RoleClinic, DomainSys, ResourceClinicPass, ActionApprove, EffectAllow},
	{RoleClinic, DomainSys, ResourceClinicVisit, ActionManage, EffectAllow},
	{RoleClinic, DomainSys, ResourceStudent, ActionRead, EffectAllow},
	{RoleClinic, DomainSys, ResourceAnnouncement, ActionRead, EffectAllow},
	{RoleClinic, DomainSys, ResourceCalendar, ActionRead, EffectAllow},

	// parents only ever see their own children, the services enforce the link
	{RoleParent, DomainSys, ResourceExcuseLetter, ActionCreate, EffectAllow},
	{RoleParent, DomainSys, ResourceExcuseLetter, ActionRead, EffectAllow},
	{RoleParent, DomainSys, ResourceAttendance, ActionRead, EffectAllow},
	{RoleParent, DomainSys, ResourceStudent, ActionRead, EffectAllow},
	{RoleParent, DomainSys, ResourceAnnouncement, ActionRead, EffectAllow},
	{RoleParent, DomainSys, ResourceCalendar, ActionRead, EffectAllow},
}

// SeedDefaultPolicies writes DefaultPolicies. Existing rows are left alone,
// so it is safe to run on every migrate.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()

	for _, p := range DefaultPolicies {
		added, err := auth.AddPermission(ctx, p.Subject, p.Domain, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "resource", p.Object, "action", p.Action)
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(DefaultPolicies))
	return nil
}

// AssignProfileRole grants the casbin role matching profiles.role.
// Call it in the same request that creates the profile.
func AssignProfileRole(ctx context.Context, auth IAuthorization, userID, profileRole string) error {
	role, ok := RoleForProfile(profileRole)
	if !ok {
		return ErrInvalidArgs
	}
	_, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), role, DomainSys)
	return err
}

// RevokeProfileRoles removes every school role held by userID.
func RevokeProfileRoles(ctx context.Context, auth IAuthorization, userID string) error {
	roles, err := auth.GetRolesForUserInDomain(ctx, GroupSubject(userID), DomainSys)
	if err != nil {
		return err
	}
	for _, r := range roles {
		if _, err := auth.RemoveRoleForUserInDomain(ctx, GroupSubject(userID), r, DomainSys); err != nil {
			return err
		}
	}
	return nil
}
