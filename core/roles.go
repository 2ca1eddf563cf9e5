package core

// Role is the closed set of caller roles. Every data-access decision is made
// from this value; handlers and services never compare raw role strings.
type Role string

const (
	RoleParent    Role = "parent"
	RoleTeacher   Role = "teacher"
	RoleTreasurer Role = "treasurer"
	RolePrincipal Role = "principal"
	RoleAdmin     Role = "admin"
	RoleUnknown   Role = ""
)

var Roles = []Role{RoleParent, RoleTeacher, RoleTreasurer, RolePrincipal, RoleAdmin}

// ParseRole maps a raw role string to a known Role; anything else is RoleUnknown.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleParent, RoleTeacher, RoleTreasurer, RolePrincipal, RoleAdmin:
		return Role(s)
	}
	return RoleUnknown
}

func (r Role) IsKnown() bool {
	return ParseRole(string(r)) != RoleUnknown
}

// IsStaff reports whether the role sees the whole school (treasurer,
// principal and admin); parents and teachers only see their own slice.
func (r Role) IsStaff() bool {
	switch r {
	case RoleTreasurer, RolePrincipal, RoleAdmin:
		return true
	}
	return false
}

// CanRecordPayments: only the treasurer and the admin may create Payments.
func (r Role) CanRecordPayments() bool {
	return r == RoleTreasurer || r == RoleAdmin
}

// CanManageRoster: parents/students rows are created by administrative or
// treasurer actions.
func (r Role) CanManageRoster() bool {
	return r.IsStaff()
}

// CanManageSchool: schools and classes are set up by the principal or admin.
func (r Role) CanManageSchool() bool {
	return r == RolePrincipal || r == RoleAdmin
}

// CanOverridePaymentFlags: administrative override of the derived
// payment_status flags (eg. starting a new billing cycle).
func (r Role) CanOverridePaymentFlags() bool {
	return r == RoleAdmin
}
