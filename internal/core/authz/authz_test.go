package authz

import (
	"testing"

	"coopfin-backend/internal/adapters/persistence/models"
)

func TestAllowsMatrix(t *testing.T) {
	tests := []struct {
		name string
		role string
		cap  Capability
		want bool
	}{
		{"member has no review", models.RoleMember, CapPaymentsReview, false},
		{"member has no loans", models.RoleMember, CapLoansManage, false},
		{"level 1 reviews payments", models.RoleAdminL1, CapPaymentsReview, true},
		{"level 1 manages dues", models.RoleAdminL1, CapDuesManage, true},
		{"level 1 cannot touch loans", models.RoleAdminL1, CapLoansManage, false},
		{"level 1 cannot set roles", models.RoleAdminL1, CapRolesManage, false},
		{"level 1 cannot import", models.RoleAdminL1, CapMembersImport, false},
		{"level 2 manages loans", models.RoleAdminL2, CapLoansManage, true},
		{"level 2 cannot set roles", models.RoleAdminL2, CapRolesManage, false},
		{"level 2 cannot change settings", models.RoleAdminL2, CapSettingsManage, false},
		{"super admin sets roles", models.RoleSuperAdmin, CapRolesManage, true},
		{"super admin imports members", models.RoleSuperAdmin, CapMembersImport, true},
		{"super admin changes settings", models.RoleSuperAdmin, CapSettingsManage, true},
		{"unknown role holds nothing", "auditor", CapReportsView, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allows(tt.role, tt.cap); got != tt.want {
				t.Errorf("Allows(%q, %q) = %v, want %v", tt.role, tt.cap, got, tt.want)
			}
		})
	}
}

func TestLegacyAdminActsAsLevel1(t *testing.T) {
	if NormalizeRole(models.RoleLegacyAdmin) != models.RoleAdminL1 {
		t.Fatalf("legacy admin should normalize to %s", models.RoleAdminL1)
	}
	if !Allows(models.RoleLegacyAdmin, CapPaymentsReview) {
		t.Error("legacy admin should review payments")
	}
	if Allows(models.RoleLegacyAdmin, CapLoansManage) {
		t.Error("legacy admin must not manage loans")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{models.RoleMember, models.RoleAdminL1, models.RoleAdminL2, models.RoleSuperAdmin, models.RoleLegacyAdmin} {
		if !IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = false, want true", role)
		}
	}
	if IsValidRole("treasurer") {
		t.Error("IsValidRole(treasurer) = true, want false")
	}
}

func TestCapabilitiesFor(t *testing.T) {
	memberCaps := CapabilitiesFor(models.RoleMember)
	if len(memberCaps) != 0 {
		t.Errorf("member capabilities = %v, want empty", memberCaps)
	}

	l2 := CapabilitiesFor(models.RoleAdminL2)
	found := false
	for _, c := range l2 {
		if c == string(CapLoansManage) {
			found = true
		}
	}
	if !found {
		t.Errorf("level 2 capabilities missing %s: %v", CapLoansManage, l2)
	}

	if caps := CapabilitiesFor("nonexistent"); len(caps) != 0 {
		t.Errorf("unknown role capabilities = %v, want empty", caps)
	}
}
