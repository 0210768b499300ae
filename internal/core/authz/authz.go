package authz

import "coopfin-backend/internal/adapters/persistence/models"

// Capability is an operation tag. Handlers name the capability they need and
// the gate answers membership; role names are compared in exactly one place.
type Capability string

const (
	CapMembersManage      Capability = "members:manage"
	CapMembersImport      Capability = "members:import"
	CapPaymentsReview     Capability = "payments:review"
	CapDuesManage         Capability = "dues:manage"
	CapLeviesManage       Capability = "levies:manage"
	CapPledgesReview      Capability = "pledges:review"
	CapDonationsReview    Capability = "donations:review"
	CapLoansManage        Capability = "loans:manage"
	CapTransactionsManage Capability = "transactions:manage"
	CapReportsView        Capability = "reports:view"
	CapRolesManage        Capability = "roles:manage"
	CapSettingsManage     Capability = "settings:manage"
)

// adminLevel1Caps is what admin_level_1 (and the legacy "admin" role) may do.
// Note: no loans:manage - level 1 admins must not see loan data at all.
var adminLevel1Caps = []Capability{
	CapMembersManage,
	CapPaymentsReview,
	CapDuesManage,
	CapLeviesManage,
	CapPledgesReview,
	CapDonationsReview,
	CapTransactionsManage,
	CapReportsView,
}

var adminLevel2Caps = append(append([]Capability{}, adminLevel1Caps...),
	CapLoansManage,
)

var superAdminCaps = append(append([]Capability{}, adminLevel2Caps...),
	CapRolesManage,
	CapSettingsManage,
	CapMembersImport,
)

// capabilityTable maps role -> permitted operation tags. Members hold no
// capabilities; their access is self-service, gated by ownership checks.
var capabilityTable = map[string][]Capability{
	models.RoleMember:     {},
	models.RoleAdminL1:    adminLevel1Caps,
	models.RoleAdminL2:    adminLevel2Caps,
	models.RoleSuperAdmin: superAdminCaps,
}

// NormalizeRole maps legacy role names onto their current equivalent
func NormalizeRole(role string) string {
	if role == models.RoleLegacyAdmin {
		return models.RoleAdminL1
	}
	return role
}

// Allows reports whether the given role holds the capability
func Allows(role string, cap Capability) bool {
	caps, ok := capabilityTable[NormalizeRole(role)]
	if !ok {
		return false
	}
	for _, c := range caps {
		if c == cap {
			return true
		}
	}
	return false
}

// IsValidRole reports whether role is assignable via role promotion
func IsValidRole(role string) bool {
	switch role {
	case models.RoleMember, models.RoleAdminL1, models.RoleAdminL2,
		models.RoleSuperAdmin, models.RoleLegacyAdmin:
		return true
	}
	return false
}

// CapabilitiesFor returns the capability tags a role holds, for profile
// responses so clients read "what am I allowed to do" instead of
// hard-coding role comparisons.
func CapabilitiesFor(role string) []string {
	caps, ok := capabilityTable[NormalizeRole(role)]
	if !ok {
		return []string{}
	}
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}
