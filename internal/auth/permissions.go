package auth

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleHR       = "hr"
	RoleAdmin    = "admin"
)

const (
	PermLeaveRead      = "leave.read"
	PermLeaveWrite     = "leave.write"
	PermLeaveApprove   = "leave.approve"
	PermLeaveAdjust    = "leave.adjust"
	PermLeaveAccrue    = "leave.accrue"
	PermDirectoryRead  = "directory.read"
	PermDirectoryWrite = "directory.write"
	PermAuditRead      = "audit.read"
)

// RolePermissions is the static role grant table. Roles are assigned by the
// identity provider; the mapping to permissions is fixed here.
var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermLeaveRead, PermLeaveWrite,
	},
	RoleManager: {
		PermLeaveRead, PermLeaveWrite, PermLeaveApprove,
		PermDirectoryRead,
	},
	RoleHR: {
		PermLeaveRead, PermLeaveWrite, PermLeaveApprove, PermLeaveAdjust, PermLeaveAccrue,
		PermDirectoryRead, PermDirectoryWrite, PermAuditRead,
	},
	RoleAdmin: {
		PermLeaveRead, PermLeaveWrite, PermLeaveApprove, PermLeaveAdjust, PermLeaveAccrue,
		PermDirectoryRead, PermDirectoryWrite, PermAuditRead,
	},
}

func RoleHasPermission(role, permission string) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
