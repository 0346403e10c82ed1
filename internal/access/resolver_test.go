package access_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgencyDesk/AgencyDesk/internal/access"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
)

func uintPtr(v uint) *uint { return &v }

func activeMember(role models.LegacyRole) *models.TeamMember {
	return &models.TeamMember{
		ID:         1,
		AgencyID:   uintPtr(1),
		Active:     true,
		Username:   "member",
		LegacyRole: role,
	}
}

func TestPlatformAdminHoldsEveryCode(t *testing.T) {
	m := activeMember(models.LegacyRoleChatter)
	m.IsPlatformAdmin = true

	ea := access.Resolve(m, nil, nil)

	for _, code := range access.AllCodes() {
		assert.True(t, ea.HasPermission(code), "platform admin must hold %s", code)
	}

	assert.True(t, ea.IsManagerOrAbove())
	assert.True(t, ea.IsAdminOrAbove())
	assert.True(t, ea.IsOwner())

	// unknown codes stay denied even for platform admins
	assert.False(t, ea.HasPermission("nonsense.fly"))
}

func TestInactiveMemberResolvesToNothing(t *testing.T) {
	m := activeMember(models.LegacyRoleOwner)
	m.Active = false

	ea := access.Resolve(m, nil, nil)

	assert.Empty(t, ea.Codes())
	assert.False(t, ea.HasPermission(access.PermDashboardView))
	assert.False(t, ea.IsManagerOrAbove())

	nilEA := access.Resolve(nil, nil, nil)
	assert.Empty(t, nilEA.Codes())
}

func TestAssignedRoleWinsOverLegacy(t *testing.T) {
	m := activeMember(models.LegacyRoleChatter)
	m.RoleID = uintPtr(7)
	m.Role = &models.Role{ID: 7, Name: "Head of Sales", Slug: "head-of-sales", HierarchyLevel: 70}

	codes := []string{access.PermSalesView, access.PermSalesApprove}

	ea := access.Resolve(m, codes, nil)

	assert.True(t, ea.HasPermission(access.PermSalesApprove))
	assert.False(t, ea.HasPermission(access.PermCustomsCreate), "only granted codes resolve")
	assert.True(t, ea.IsManagerOrAbove())
	assert.False(t, ea.IsAdminOrAbove())
}

func TestFailedRoleLookupDegradesToLegacy(t *testing.T) {
	m := activeMember(models.LegacyRoleManager)
	m.RoleID = uintPtr(7)
	m.Role = &models.Role{ID: 7, HierarchyLevel: 90}

	lookupErr := errors.New("role join failed")

	ea := access.Resolve(m, nil, lookupErr)

	// degraded to the manager legacy mapping, not denied outright
	assert.ElementsMatch(t, access.LegacyGrants(models.LegacyRoleManager), ea.Codes())
	assert.True(t, ea.IsManagerOrAbove())
	assert.False(t, ea.IsAdminOrAbove(), "hierarchy must come from the legacy role, not the unloadable role")

	// repeated resolution with the same inputs yields the same set
	again := access.Resolve(m, nil, lookupErr)
	assert.Equal(t, ea.Codes(), again.Codes())
}

func TestLegacyMappingPerRole(t *testing.T) {
	tests := []struct {
		name     string
		role     models.LegacyRole
		holds    []string
		excludes []string
	}{
		{
			name:     "owner holds owner-only settings actions",
			role:     models.LegacyRoleOwner,
			holds:    []string{access.PermSettingsBilling, access.PermSettingsSecurity, access.PermCustomsDelete},
			excludes: []string{access.PermAgenciesManage},
		},
		{
			name:     "admin misses owner-only settings actions",
			role:     models.LegacyRoleAdmin,
			holds:    []string{access.PermSettingsEdit, access.PermTeamRoles, access.PermSalesDelete},
			excludes: []string{access.PermSettingsBilling, access.PermSettingsSecurity},
		},
		{
			name:     "manager has no destructive or settings actions",
			role:     models.LegacyRoleManager,
			holds:    []string{access.PermSalesApprove, access.PermCustomsApprove, access.PermCustomsDeliver},
			excludes: []string{access.PermSalesDelete, access.PermCustomsDelete, access.PermSettingsView, access.PermTeamInvite},
		},
		{
			name:     "chatter is self-service only",
			role:     models.LegacyRoleChatter,
			holds:    []string{access.PermSalesCreate, access.PermCustomsCreate},
			excludes: []string{access.PermCustomsApprove, access.PermSalesApprove, access.PermTeamView},
		},
		{
			name:     "pending resolves to the empty set",
			role:     models.LegacyRolePending,
			excludes: []string{access.PermDashboardView},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ea := access.Resolve(activeMember(tt.role), nil, nil)

			for _, code := range tt.holds {
				assert.True(t, ea.HasPermission(code), "%s should hold %s", tt.role, code)
			}

			for _, code := range tt.excludes {
				assert.False(t, ea.HasPermission(code), "%s should not hold %s", tt.role, code)
			}
		})
	}
}

func TestHierarchyFlagsAreMonotonic(t *testing.T) {
	legacyRoles := []models.LegacyRole{
		models.LegacyRoleOwner,
		models.LegacyRoleAdmin,
		models.LegacyRoleManager,
		models.LegacyRoleChatter,
		models.LegacyRolePending,
		models.LegacyRole("unknown"),
	}

	check := func(t *testing.T, ea access.EffectiveAccess) {
		t.Helper()

		if ea.IsOwner() {
			assert.True(t, ea.IsAdminOrAbove(), "owner implies admin or above")
		}

		if ea.IsAdminOrAbove() {
			assert.True(t, ea.IsManagerOrAbove(), "admin or above implies manager or above")
		}
	}

	for _, role := range legacyRoles {
		check(t, access.Resolve(activeMember(role), nil, nil))
	}

	for level := 0; level <= 120; level += 10 {
		m := activeMember(models.LegacyRoleChatter)
		m.RoleID = uintPtr(1)
		m.Role = &models.Role{ID: 1, HierarchyLevel: level}

		check(t, access.Resolve(m, nil, nil))
	}
}

func TestHierarchyThresholds(t *testing.T) {
	tests := []struct {
		level          int
		managerOrAbove bool
		adminOrAbove   bool
		owner          bool
	}{
		{level: 10},
		{level: 59},
		{level: 60, managerOrAbove: true},
		{level: 79, managerOrAbove: true},
		{level: 80, managerOrAbove: true, adminOrAbove: true},
		{level: 100, managerOrAbove: true, adminOrAbove: true, owner: true},
	}

	for _, tt := range tests {
		m := activeMember(models.LegacyRolePending)
		m.RoleID = uintPtr(1)
		m.Role = &models.Role{ID: 1, HierarchyLevel: tt.level}

		ea := access.Resolve(m, nil, nil)

		assert.Equal(t, tt.managerOrAbove, ea.IsManagerOrAbove(), "level %d", tt.level)
		assert.Equal(t, tt.adminOrAbove, ea.IsAdminOrAbove(), "level %d", tt.level)
		assert.Equal(t, tt.owner, ea.IsOwner(), "level %d", tt.level)
	}
}

func TestChatterCannotApproveCustoms(t *testing.T) {
	// chatter with no role assignment attempts customs.approve
	ea := access.Resolve(activeMember(models.LegacyRoleChatter), nil, nil)

	require.False(t, ea.HasPermission(access.PermCustomsApprove),
		"the denial path must trigger before the approval transition is reachable")
}

func TestHasAnyAndAllPermissions(t *testing.T) {
	ea := access.Resolve(activeMember(models.LegacyRoleChatter), nil, nil)

	assert.True(t, ea.HasAnyPermission(access.PermCustomsApprove, access.PermSalesCreate))
	assert.False(t, ea.HasAnyPermission(access.PermCustomsApprove, access.PermSalesApprove))
	assert.True(t, ea.HasAllPermissions(access.PermSalesCreate, access.PermCustomsCreate))
	assert.False(t, ea.HasAllPermissions(access.PermSalesCreate, access.PermSalesApprove))
	assert.False(t, ea.HasAnyPermission())
	assert.True(t, ea.HasAllPermissions())
}

func TestClassifyResolutionKinds(t *testing.T) {
	m := activeMember(models.LegacyRoleManager)

	assert.IsType(t, access.ByLegacy{}, access.Classify(m, nil, nil))

	m.RoleID = uintPtr(3)
	m.Role = &models.Role{ID: 3}
	assert.IsType(t, access.ByRole{}, access.Classify(m, []string{access.PermSalesView}, nil))
	assert.IsType(t, access.ByLegacy{}, access.Classify(m, nil, errors.New("boom")))

	m.IsPlatformAdmin = true
	assert.IsType(t, access.FullCatalog{}, access.Classify(m, nil, nil))

	assert.IsType(t, access.NoAccess{}, access.Classify(nil, nil, nil))
}

func TestCatalogCodesAreUniqueAndValid(t *testing.T) {
	seen := make(map[string]bool)

	for _, def := range access.Catalog() {
		require.False(t, seen[def.Code], "duplicate catalog code %s", def.Code)
		seen[def.Code] = true

		assert.True(t, access.IsValidCode(def.Code))
		assert.NotEmpty(t, def.Category)
		assert.NotEmpty(t, def.Description)
	}

	assert.False(t, access.IsValidCode("made.up"))
}
