package authorize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	casbin "github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/google/uuid"

	"github.com/educare/track_backend/pkg/reqctx"
)

// createTestEnforcer creates a file-backed Casbin enforcer for testing
func createTestEnforcer(t *testing.T) *casbin.DistributedEnforcer {
	t.Helper()

	tmpDir := t.TempDir()

	modelPath := filepath.Join(tmpDir, "model.conf")
	modelContent := `[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act, eft

[role_definition]
g = _, _, _
g2 = _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = (g(r.sub, p.sub, r.dom) || g2(r.sub, p.sub)) && (p.dom == "*" || p.dom == r.dom) && (p.obj == "*" || keyMatch2(r.obj, p.obj)) && (p.act == "*" || keyMatch(r.act, p.act))
`
	if err := os.WriteFile(modelPath, []byte(modelContent), 0644); err != nil {
		t.Fatalf("failed to write model file: %v", err)
	}

	policyPath := filepath.Join(tmpDir, "policy.csv")
	if err := os.WriteFile(policyPath, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	e, err := casbin.NewDistributedEnforcer(modelPath, fileadapter.NewAdapter(policyPath))
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}

	e.EnableAutoSave(false)
	e.EnableEnforce(true)

	return e
}

func seededAuth(t *testing.T) IAuthorization {
	t.Helper()
	auth, err := NewAuthorization(createTestEnforcer(t))
	if err != nil {
		t.Fatalf("NewAuthorization: %v", err)
	}
	if err := SeedDefaultPolicies(context.Background(), auth); err != nil {
		t.Fatalf("SeedDefaultPolicies: %v", err)
	}
	return auth
}

func TestNewAuthorization(t *testing.T) {
	t.Run("returns error for nil enforcer", func(t *testing.T) {
		if _, err := NewAuthorization(nil); err == nil {
			t.Error("Expected error for nil enforcer")
		}
	})

	t.Run("succeeds with valid enforcer", func(t *testing.T) {
		auth, err := NewAuthorization(createTestEnforcer(t))
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if auth == nil {
			t.Error("Expected non-nil authorization")
		}
	})
}

func TestSeededMatrix(t *testing.T) {
	auth := seededAuth(t)
	ctx := context.Background()

	users := map[string]string{
		"teacher": "u-teacher",
		"guard":   "u-guard",
		"clinic":  "u-clinic",
		"parent":  "u-parent",
		"admin":   "u-admin",
	}
	for role, id := range users {
		if err := AssignProfileRole(ctx, auth, id, role); err != nil {
			t.Fatalf("AssignProfileRole(%s): %v", role, err)
		}
	}

	tests := []struct {
		user     string
		resource Resource
		action   Action
		want     bool
	}{
		{"guard", ResourceGateTap, ActionCreate, true},
		{"guard", ResourceClinicPass, ActionCreate, false},
		{"guard", ResourceUser, ActionCreate, false},
		{"teacher", ResourceGateTap, ActionCreate, true},
		{"teacher", ResourceClinicPass, ActionCreate, true},
		{"teacher", ResourceClinicPass, ActionApprove, false},
		{"teacher", ResourceClinicVisit, ActionApprove, true},
		{"teacher", ResourceExcuseLetter, ActionApprove, true},
		{"teacher", ResourceSubjectAttendance, ActionApprove, true},
		{"teacher", ResourceSchedule, ActionManage, false},
		{"clinic", ResourceClinicPass, ActionApprove, true},
		{"clinic", ResourceClinicVisit, ActionUpdate, true}, // via manage
		{"clinic", ResourceClinicPass, ActionCreate, false},
		{"clinic", ResourceSettings, ActionUpdate, false},
		{"parent", ResourceExcuseLetter, ActionCreate, true},
		{"parent", ResourceExcuseLetter, ActionApprove, false},
		{"parent", ResourceGateTap, ActionCreate, false},
		{"parent", ResourceAudit, ActionRead, false},
		{"admin", ResourceUser, ActionCreate, true},
		{"admin", ResourceAudit, ActionRead, true},
		{"admin", ResourceSettings, ActionUpdate, true},
		{"admin", ResourceSchedule, ActionManage, true},
		{"guard", ResourceSubjectAttendance, ActionCreate, false},
	}

	for _, tt := range tests {
		t.Run(tt.user+"/"+string(tt.resource)+"/"+string(tt.action), func(t *testing.T) {
			got, err := auth.Enforce(ctx, GroupSubject(users[tt.user]), DomainSys, tt.resource, tt.action)
			if err != nil {
				t.Fatalf("Enforce: %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforceArgumentErrors(t *testing.T) {
	auth := seededAuth(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		subject  GroupSubject
		domain   Domain
		resource Resource
		action   Action
	}{
		{"empty subject", "", DomainSys, ResourceStudent, ActionRead},
		{"invalid domain", "u-1", Domain("clinic:123"), ResourceStudent, ActionRead},
		{"unknown resource", "u-1", DomainSys, Resource("wallet"), ActionRead},
		{"unknown action", "u-1", DomainSys, ResourceStudent, Action("archive")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.Enforce(ctx, tt.subject, tt.domain, tt.resource, tt.action); !errors.Is(err, ErrInvalidArgs) {
				t.Errorf("err = %v, want ErrInvalidArgs", err)
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	auth := seededAuth(t)
	ctx := context.Background()
	_ = AssignProfileRole(ctx, auth, "u-guard", "guard")

	if err := auth.MustEnforce(ctx, "u-guard", DomainSys, ResourceGateTap, ActionCreate); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := auth.MustEnforce(ctx, "u-guard", DomainSys, ResourceAudit, ActionRead); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}

func TestAssignAndRevokeProfileRole(t *testing.T) {
	auth := seededAuth(t)
	ctx := context.Background()

	if err := AssignProfileRole(ctx, auth, "u-1", "Teacher"); err != nil {
		t.Fatalf("AssignProfileRole: %v", err)
	}
	roles, err := auth.GetRolesForUserInDomain(ctx, "u-1", DomainSys)
	if err != nil {
		t.Fatalf("GetRolesForUserInDomain: %v", err)
	}
	if len(roles) != 1 || roles[0] != RoleTeacher {
		t.Fatalf("roles = %v, want [%s]", roles, RoleTeacher)
	}

	if err := RevokeProfileRoles(ctx, auth, "u-1"); err != nil {
		t.Fatalf("RevokeProfileRoles: %v", err)
	}
	roles, _ = auth.GetRolesForUserInDomain(ctx, "u-1", DomainSys)
	if len(roles) != 0 {
		t.Errorf("roles after revoke = %v", roles)
	}

	if err := AssignProfileRole(ctx, auth, "u-2", "janitor"); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("unknown profile role err = %v", err)
	}
}

func TestPermissionManagement(t *testing.T) {
	auth, _ := NewAuthorization(createTestEnforcer(t))
	ctx := context.Background()

	added, err := auth.AddPermission(ctx, RoleGuard, DomainSys, ResourceCalendar, ActionRead, EffectAllow)
	if err != nil || !added {
		t.Fatalf("AddPermission = %v, %v", added, err)
	}
	removed, err := auth.RemovePermission(ctx, RoleGuard, DomainSys, ResourceCalendar, ActionRead, EffectAllow)
	if err != nil || !removed {
		t.Fatalf("RemovePermission = %v, %v", removed, err)
	}
	if _, err := auth.AddPermission(ctx, RoleGuard, DomainSys, ResourceUser, ActionRead, PolicyEffect("maybe")); err == nil {
		t.Error("Expected error for invalid effect")
	}
}

func TestEnforceSession(t *testing.T) {
	auth := seededAuth(t)
	id := uuid.New()
	_ = AssignProfileRole(context.Background(), auth, id.String(), "parent")

	if err := EnforceSession(context.Background(), auth, ResourceStudent, ActionRead); !errors.Is(err, ErrNoSubjectInContext) {
		t.Errorf("anonymous err = %v", err)
	}

	ctx := reqctx.WithSession(context.Background(), &reqctx.Session{UserID: id, Role: "parent"})
	if err := EnforceSession(ctx, auth, ResourceStudent, ActionRead); err != nil {
		t.Errorf("parent read student: %v", err)
	}
	if err := EnforceSession(ctx, auth, ResourceUser, ActionCreate); !errors.Is(err, ErrForbidden) {
		t.Errorf("parent create user err = %v", err)
	}
}

func TestRoleForProfile(t *testing.T) {
	for profile, want := range ProfileRoleToRBACRole {
		got, ok := RoleForProfile(profile)
		if !ok || got != want {
			t.Errorf("RoleForProfile(%q) = %q, %v", profile, got, ok)
		}
		if _, known := KnownRoles[got]; !known {
			t.Errorf("%q is not a known role", got)
		}
	}
	if IsValidDomain(Domain("user:abc")) {
		t.Error("only sys and wildcard domains are valid")
	}
}
