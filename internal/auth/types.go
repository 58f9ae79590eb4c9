package auth

import "errors"

// Role is the access level carried by an operator token.
type Role string

// Role constants.
const (
	// RoleViewer may read the redacted live configuration.
	RoleViewer Role = "viewer"

	// RoleOperator may also read the snapshot history.
	RoleOperator Role = "operator"
)

// ValidRoles lists every role in ascending order of privilege.
var ValidRoles = []Role{RoleViewer, RoleOperator}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Sentinel errors.
var (
	ErrTokenInvalid = errors.New("auth: invalid token")
	ErrTokenExpired = errors.New("auth: token has expired")
	ErrInvalidRole  = errors.New("auth: invalid role")
	ErrWeakSecret   = errors.New("auth: signing secret too short")
	ErrForbidden    = errors.New("auth: insufficient permissions")
)
