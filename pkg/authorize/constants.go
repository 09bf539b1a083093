package authorize

import "strings"

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	// approve covers every review step (pass review, parent notification, excuse decision)
	ActionApprove Action = "approve"
	ActionManage  Action = "manage"
)

const WildcardAction Action = "*"

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {},
	ActionApprove: {}, ActionManage: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceUser         Resource = "user"
	ResourceStudent      Resource = "student"
	ResourceGateTap      Resource = "gate_tap"
	ResourceAttendance   Resource = "attendance"
	ResourceClinicPass   Resource = "clinic_pass"
	ResourceClinicVisit  Resource = "clinic_visit"
	ResourceExcuseLetter Resource = "excuse_letter"
	ResourceAnnouncement Resource = "announcement"
	ResourceNotification Resource = "notification"
	ResourceCalendar     Resource = "calendar"
	ResourceSettings     Resource = "settings"
	ResourceAudit        Resource = "audit"

	ResourceSchedule          Resource = "class_schedule"
	ResourceSubjectAttendance Resource = "subject_attendance"
)

var KnownResources = map[Resource]struct{}{
	ResourceUser: {}, ResourceStudent: {}, ResourceGateTap: {}, ResourceAttendance: {},
	ResourceClinicPass: {}, ResourceClinicVisit: {}, ResourceExcuseLetter: {},
	ResourceAnnouncement: {}, ResourceNotification: {}, ResourceCalendar: {},
	ResourceSettings: {}, ResourceAudit: {},
	ResourceSchedule: {}, ResourceSubjectAttendance: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Policy subjects assigned to users through grouping rows in the sys domain.

const (
	WildcardRole Role = "*"

	RoleAdmin   Role = "role:school:admin"
	RoleTeacher Role = "role:school:teacher"
	RoleGuard   Role = "role:school:guard"
	RoleClinic  Role = "role:school:clinic"
	RoleParent  Role = "role:school:parent"
)

var KnownRoles = map[Role]struct{}{
	RoleAdmin: {}, RoleTeacher: {}, RoleGuard: {}, RoleClinic: {}, RoleParent: {},
}

// ProfileRoleToRBACRole maps profiles.role values to casbin roles.
var ProfileRoleToRBACRole = map[string]Role{
	"admin":   RoleAdmin,
	"teacher": RoleTeacher,
	"guard":   RoleGuard,
	"clinic":  RoleClinic,
	"parent":  RoleParent,
}

// RoleForProfile returns the casbin role for a profiles.role value.
func RoleForProfile(profileRole string) (Role, bool) {
	r, ok := ProfileRoleToRBACRole[strings.ToLower(profileRole)]
	return r, ok
}

// ----------------------------
// Domains
// ----------------------------

// The school is a single tenant, every grant lives in the sys domain.
const (
	DomainSys      Domain = "sys"
	WildcardDomain Domain = "*"
)

func IsValidDomain(d Domain) bool {
	return d == DomainSys || d == WildcardDomain
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is the g.sub in Casbin: a concrete principal id.
type GroupSubject string

// Permission rows: p, role, domain, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
