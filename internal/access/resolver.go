package access

import (
	"sort"

	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
)

// Resolution is the explicit outcome of classifying a member's permission
// sources. Exactly one of the concrete types below is produced; building the
// permission set is a single exhaustive switch over them, so no fallback
// layer is taken silently.
type Resolution interface {
	isResolution()
}

// FullCatalog is the resolution for platform administrators: every
// permission in the catalog, regardless of role assignment.
type FullCatalog struct{}

// ByRole is the resolution for members with an assigned role whose grants
// loaded successfully.
type ByRole struct {
	Role  models.Role
	Codes []string
}

// ByLegacy is the resolution for members without an assigned role, or whose
// role lookup failed and degraded to the legacy mapping.
type ByLegacy struct {
	Role models.LegacyRole
}

// NoAccess is the resolution for members without an active membership.
type NoAccess struct{}

func (FullCatalog) isResolution() {}
func (ByRole) isResolution()      {}
func (ByLegacy) isResolution()    {}
func (NoAccess) isResolution()    {}

// Classify decides which permission source applies to a member.
// roleCodes and roleErr describe the outcome of loading the assigned role's
// grants; both are ignored unless the member actually has a role assigned.
// A lookup error is non-fatal and degrades to the legacy mapping.
func Classify(m *models.TeamMember, roleCodes []string, roleErr error) Resolution {
	if m == nil || !m.Active || m.DeletedAt != nil {
		return NoAccess{}
	}

	if m.IsPlatformAdmin {
		return FullCatalog{}
	}

	if m.RoleID != nil && m.Role != nil && roleErr == nil {
		return ByRole{Role: *m.Role, Codes: roleCodes}
	}

	return ByLegacy{Role: m.LegacyRole}
}

// EffectiveAccess is the resolved, member-specific set of capability codes
// plus the coarse hierarchy flags. It is an immutable value: re-resolve on
// every auth or role change instead of mutating it in place.
type EffectiveAccess struct {
	permissions    map[string]struct{}
	platformAdmin  bool
	managerOrAbove bool
	adminOrAbove   bool
	owner          bool
}

// Resolve computes the effective access for a member.
// See Classify for the meaning of roleCodes and roleErr.
func Resolve(m *models.TeamMember, roleCodes []string, roleErr error) EffectiveAccess {
	return Build(Classify(m, roleCodes, roleErr))
}

// Build produces the effective access for an already-classified member.
func Build(res Resolution) EffectiveAccess {
	var (
		codes []string
		ea    EffectiveAccess
	)

	switch r := res.(type) {
	case FullCatalog:
		codes = AllCodes()
		ea.platformAdmin = true
	case ByRole:
		codes = r.Codes
		ea.managerOrAbove = r.Role.HierarchyLevel >= models.HierarchyManager
		ea.adminOrAbove = r.Role.HierarchyLevel >= models.HierarchyAdmin
		ea.owner = r.Role.HierarchyLevel >= models.HierarchyOwner
	case ByLegacy:
		codes = LegacyGrants(r.Role)
		ea.managerOrAbove = r.Role == models.LegacyRoleManager ||
			r.Role == models.LegacyRoleAdmin || r.Role == models.LegacyRoleOwner
		ea.adminOrAbove = r.Role == models.LegacyRoleAdmin || r.Role == models.LegacyRoleOwner
		ea.owner = r.Role == models.LegacyRoleOwner
	case NoAccess:
		// empty set, all flags false
	}

	if ea.platformAdmin {
		ea.managerOrAbove = true
		ea.adminOrAbove = true
		ea.owner = true
	}

	ea.permissions = make(map[string]struct{}, len(codes))
	for _, code := range codes {
		ea.permissions[code] = struct{}{}
	}

	return ea
}

// HasPermission reports whether the member holds the given permission code.
// Platform admins satisfy every valid code trivially.
func (a EffectiveAccess) HasPermission(code string) bool {
	if a.platformAdmin {
		return IsValidCode(code)
	}

	_, ok := a.permissions[code]

	return ok
}

// HasAnyPermission reports whether the member holds at least one of the codes.
func (a EffectiveAccess) HasAnyPermission(codes ...string) bool {
	for _, code := range codes {
		if a.HasPermission(code) {
			return true
		}
	}

	return false
}

// HasAllPermissions reports whether the member holds every one of the codes.
func (a EffectiveAccess) HasAllPermissions(codes ...string) bool {
	for _, code := range codes {
		if !a.HasPermission(code) {
			return false
		}
	}

	return true
}

// Codes returns the resolved permission codes, sorted, as a fresh slice.
func (a EffectiveAccess) Codes() []string {
	out := make([]string, 0, len(a.permissions))
	for code := range a.permissions {
		out = append(out, code)
	}

	sort.Strings(out)

	return out
}

// IsPlatformAdmin reports whether the member bypasses tenant scoping.
func (a EffectiveAccess) IsPlatformAdmin() bool {
	return a.platformAdmin
}

// IsManagerOrAbove reports the coarse "manager or above" hierarchy flag.
func (a EffectiveAccess) IsManagerOrAbove() bool {
	return a.managerOrAbove
}

// IsAdminOrAbove reports the coarse "admin or above" hierarchy flag.
func (a EffectiveAccess) IsAdminOrAbove() bool {
	return a.adminOrAbove
}

// IsOwner reports the coarse owner hierarchy flag.
func (a EffectiveAccess) IsOwner() bool {
	return a.owner
}
