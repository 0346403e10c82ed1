package navigation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AgencyDesk/AgencyDesk/internal/access"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	"github.com/AgencyDesk/AgencyDesk/internal/web/navigation"
)

func resolveLegacy(role models.LegacyRole) access.EffectiveAccess {
	agencyID := uint(1)

	return access.Resolve(&models.TeamMember{
		ID:         1,
		AgencyID:   &agencyID,
		Active:     true,
		LegacyRole: role,
	}, nil, nil)
}

func titles(items []navigation.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}

	return out
}

func TestMenuForChatter(t *testing.T) {
	items := navigation.Menu(resolveLegacy(models.LegacyRoleChatter))

	got := titles(items)
	assert.Contains(t, got, "Dashboard")
	assert.Contains(t, got, "Sales")
	assert.Contains(t, got, "Custom Requests")
	assert.NotContains(t, got, "Team")
	assert.NotContains(t, got, "Settings")
	assert.NotContains(t, got, "Agencies")
}

func TestMenuForOwnerOmitsPlatformSection(t *testing.T) {
	items := navigation.Menu(resolveLegacy(models.LegacyRoleOwner))

	got := titles(items)
	assert.Contains(t, got, "Team")
	assert.Contains(t, got, "Settings")
	assert.NotContains(t, got, "Agencies", "agency owners are not platform operators")
}

func TestMenuForPlatformAdminIsComplete(t *testing.T) {
	resolved := access.Resolve(&models.TeamMember{ID: 1, Active: true, IsPlatformAdmin: true}, nil, nil)

	items := navigation.Menu(resolved)
	assert.Contains(t, titles(items), "Agencies")
	assert.Len(t, items, 9)
}

func TestMenuForUnauthenticatedIsEmpty(t *testing.T) {
	assert.Empty(t, navigation.Menu(access.Resolve(nil, nil, nil)))
}

func TestMenuForPendingMemberIsEmpty(t *testing.T) {
	assert.Empty(t, navigation.Menu(resolveLegacy(models.LegacyRolePending)))
}
