package access

import "github.com/AgencyDesk/AgencyDesk/internal/db/models"

// legacyGrants maps the legacy role strings onto static permission lists.
// Members without an assigned role (or whose role lookup failed) resolve
// through this table. Codes not listed here stay denied.
var legacyGrants = map[models.LegacyRole][]string{ //nolint:gochecknoglobals
	// Owners hold every agency-scoped permission. Platform agency
	// management stays out: that is platform admin territory.
	models.LegacyRoleOwner: {
		PermDashboardView,
		PermClientsView, PermClientsCreate, PermClientsEdit, PermClientsDelete, PermClientsAssign,
		PermSalesView, PermSalesCreate, PermSalesEdit, PermSalesApprove, PermSalesDelete,
		PermCustomsView, PermCustomsCreate, PermCustomsEdit, PermCustomsApprove,
		PermCustomsComplete, PermCustomsDeliver, PermCustomsDelete,
		PermTeamView, PermTeamInvite, PermTeamEdit, PermTeamRemove, PermTeamRoles,
		PermCommsView, PermCommsSend,
		PermContentView, PermContentUpload, PermContentDelete,
		PermSettingsView, PermSettingsEdit, PermSettingsBilling, PermSettingsSecurity,
	},

	// Admins match owners minus the owner-only settings actions.
	models.LegacyRoleAdmin: {
		PermDashboardView,
		PermClientsView, PermClientsCreate, PermClientsEdit, PermClientsDelete, PermClientsAssign,
		PermSalesView, PermSalesCreate, PermSalesEdit, PermSalesApprove, PermSalesDelete,
		PermCustomsView, PermCustomsCreate, PermCustomsEdit, PermCustomsApprove,
		PermCustomsComplete, PermCustomsDeliver, PermCustomsDelete,
		PermTeamView, PermTeamInvite, PermTeamEdit, PermTeamRemove, PermTeamRoles,
		PermCommsView, PermCommsSend,
		PermContentView, PermContentUpload, PermContentDelete,
		PermSettingsView, PermSettingsEdit,
	},

	// Managers run operations: no destructive actions, no settings.
	models.LegacyRoleManager: {
		PermDashboardView,
		PermClientsView, PermClientsCreate, PermClientsEdit, PermClientsAssign,
		PermSalesView, PermSalesCreate, PermSalesEdit, PermSalesApprove,
		PermCustomsView, PermCustomsCreate, PermCustomsEdit, PermCustomsApprove,
		PermCustomsComplete, PermCustomsDeliver,
		PermTeamView,
		PermCommsView, PermCommsSend,
		PermContentView, PermContentUpload,
	},

	// Chatters are limited to self-service submission and lookups.
	models.LegacyRoleChatter: {
		PermDashboardView,
		PermClientsView,
		PermSalesView, PermSalesCreate,
		PermCustomsView, PermCustomsCreate,
		PermCommsView, PermCommsSend,
	},
}

// LegacyGrants returns the static permission list for a legacy role.
// Unrecognized roles (including pending) resolve to an empty set.
func LegacyGrants(role models.LegacyRole) []string {
	grants, ok := legacyGrants[role]
	if !ok {
		return nil
	}

	out := make([]string, len(grants))
	copy(out, grants)

	return out
}
