package auth

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleViewer, PermConfigRead, true},
		{RoleViewer, PermSnapshotRead, false},
		{RoleOperator, PermConfigRead, true},
		{RoleOperator, PermSnapshotRead, true},
		{RoleViewer, PermAuditRead, false},
		{RoleOperator, PermAuditRead, true},
		{Role("owner"), PermConfigRead, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.want {
				t.Errorf("HasPermission() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPermissionsForRole_ReturnsCopy(t *testing.T) {
	perms := PermissionsForRole(RoleOperator)
	perms[0] = "tampered"
	if !HasPermission(RoleOperator, PermConfigRead) {
		t.Error("mutating the returned slice changed the role mapping")
	}
}

func TestRole_IsValid(t *testing.T) {
	for _, r := range ValidRoles {
		if !r.IsValid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("").IsValid() || Role("admin").IsValid() {
		t.Error("unknown roles should be invalid")
	}
}
