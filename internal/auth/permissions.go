package auth

// Permission represents a named capability of the diagnostic API.
type Permission string

// Permission constants.
const (
	PermConfigRead   Permission = "config:read"
	PermSnapshotRead Permission = "snapshot:read"
	PermAuditRead    Permission = "audit:read"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermConfigRead,
	},
	RoleOperator: {
		PermConfigRead,
		PermSnapshotRead,
		PermAuditRead,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of the permissions granted to role.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
