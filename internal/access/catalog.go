package access

import "github.com/AgencyDesk/AgencyDesk/internal/db/models"

// Permission codes define the available permissions in the system.
// Codes are stable once issued and are used for role-based access control
// to restrict access to specific screens and actions.
const (
	// PermDashboardView allows viewing the main dashboard.
	PermDashboardView = "dashboard.view"

	// PermClientsView allows viewing the client list and client details.
	PermClientsView = "clients.view"
	// PermClientsCreate allows adding new clients.
	PermClientsCreate = "clients.create"
	// PermClientsEdit allows editing client records.
	PermClientsEdit = "clients.edit"
	// PermClientsDelete allows removing client records.
	PermClientsDelete = "clients.delete"
	// PermClientsAssign allows assigning chatters to clients.
	PermClientsAssign = "clients.assign"

	// PermSalesView allows viewing submitted sales.
	PermSalesView = "sales.view"
	// PermSalesCreate allows submitting new sales.
	PermSalesCreate = "sales.create"
	// PermSalesEdit allows editing sale details.
	PermSalesEdit = "sales.edit"
	// PermSalesApprove allows validating or rejecting pending sales.
	PermSalesApprove = "sales.approve"
	// PermSalesDelete allows deleting sale records.
	PermSalesDelete = "sales.delete"

	// PermCustomsView allows viewing custom content requests.
	PermCustomsView = "customs.view"
	// PermCustomsCreate allows creating custom content requests.
	PermCustomsCreate = "customs.create"
	// PermCustomsEdit allows editing custom request fields.
	PermCustomsEdit = "customs.edit"
	// PermCustomsApprove allows team approval and denial of custom requests.
	PermCustomsApprove = "customs.approve"
	// PermCustomsComplete allows marking custom requests completed.
	PermCustomsComplete = "customs.complete"
	// PermCustomsDeliver allows marking custom requests delivered.
	PermCustomsDeliver = "customs.deliver"
	// PermCustomsDelete allows hard-deleting custom request records.
	PermCustomsDelete = "customs.delete"

	// PermTeamView allows viewing the team roster.
	PermTeamView = "team.view"
	// PermTeamInvite allows adding team members.
	PermTeamInvite = "team.invite"
	// PermTeamEdit allows editing team member records and role assignments.
	PermTeamEdit = "team.edit"
	// PermTeamRemove allows deactivating team members.
	PermTeamRemove = "team.remove"
	// PermTeamRoles allows managing roles and their permission grants.
	PermTeamRoles = "team.roles"

	// PermCommsView allows viewing communications.
	PermCommsView = "comms.view"
	// PermCommsSend allows sending communications.
	PermCommsSend = "comms.send"

	// PermContentView allows viewing the content library.
	PermContentView = "content.view"
	// PermContentUpload allows uploading content.
	PermContentUpload = "content.upload"
	// PermContentDelete allows deleting content.
	PermContentDelete = "content.delete"

	// PermAgenciesView allows viewing the platform agency list.
	PermAgenciesView = "agencies.view"
	// PermAgenciesManage allows managing agency accounts (platform scope).
	PermAgenciesManage = "agencies.manage"

	// PermSettingsView allows viewing agency settings.
	PermSettingsView = "settings.view"
	// PermSettingsEdit allows editing agency settings.
	PermSettingsEdit = "settings.edit"
	// PermSettingsBilling allows managing billing (owner only by default).
	PermSettingsBilling = "settings.billing"
	// PermSettingsSecurity allows managing security settings (owner only by default).
	PermSettingsSecurity = "settings.security"
)

// Definition describes one catalog entry.
type Definition struct {
	Code        string
	Category    string
	Kind        models.PermissionKind
	Description string
}

// catalog is the full permission catalog in a stable order.
var catalog = []Definition{ //nolint:gochecknoglobals
	{PermDashboardView, "dashboard", models.PermissionKindPage, "View the main dashboard"},

	{PermClientsView, "clients", models.PermissionKindPage, "View clients"},
	{PermClientsCreate, "clients", models.PermissionKindAction, "Add clients"},
	{PermClientsEdit, "clients", models.PermissionKindAction, "Edit clients"},
	{PermClientsDelete, "clients", models.PermissionKindAction, "Remove clients"},
	{PermClientsAssign, "clients", models.PermissionKindAction, "Assign chatters to clients"},

	{PermSalesView, "sales", models.PermissionKindPage, "View sales"},
	{PermSalesCreate, "sales", models.PermissionKindAction, "Submit sales"},
	{PermSalesEdit, "sales", models.PermissionKindAction, "Edit sales"},
	{PermSalesApprove, "sales", models.PermissionKindAction, "Validate or reject sales"},
	{PermSalesDelete, "sales", models.PermissionKindAction, "Delete sales"},

	{PermCustomsView, "customs", models.PermissionKindPage, "View custom requests"},
	{PermCustomsCreate, "customs", models.PermissionKindAction, "Create custom requests"},
	{PermCustomsEdit, "customs", models.PermissionKindAction, "Edit custom requests"},
	{PermCustomsApprove, "customs", models.PermissionKindAction, "Approve or deny custom requests"},
	{PermCustomsComplete, "customs", models.PermissionKindAction, "Mark custom requests completed"},
	{PermCustomsDeliver, "customs", models.PermissionKindAction, "Mark custom requests delivered"},
	{PermCustomsDelete, "customs", models.PermissionKindAction, "Delete custom request records"},

	{PermTeamView, "team", models.PermissionKindPage, "View the team roster"},
	{PermTeamInvite, "team", models.PermissionKindAction, "Add team members"},
	{PermTeamEdit, "team", models.PermissionKindAction, "Edit team members"},
	{PermTeamRemove, "team", models.PermissionKindAction, "Deactivate team members"},
	{PermTeamRoles, "team", models.PermissionKindAction, "Manage roles and grants"},

	{PermCommsView, "comms", models.PermissionKindPage, "View communications"},
	{PermCommsSend, "comms", models.PermissionKindAction, "Send communications"},

	{PermContentView, "content", models.PermissionKindPage, "View the content library"},
	{PermContentUpload, "content", models.PermissionKindAction, "Upload content"},
	{PermContentDelete, "content", models.PermissionKindAction, "Delete content"},

	{PermAgenciesView, "agencies", models.PermissionKindPage, "View platform agencies"},
	{PermAgenciesManage, "agencies", models.PermissionKindAction, "Manage agency accounts"},

	{PermSettingsView, "settings", models.PermissionKindPage, "View agency settings"},
	{PermSettingsEdit, "settings", models.PermissionKindAction, "Edit agency settings"},
	{PermSettingsBilling, "settings", models.PermissionKindAction, "Manage billing"},
	{PermSettingsSecurity, "settings", models.PermissionKindAction, "Manage security settings"},
}

// Catalog returns a copy of the full permission catalog.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)

	return out
}

// AllCodes returns every permission code in catalog order.
func AllCodes() []string {
	out := make([]string, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, def.Code)
	}

	return out
}

// IsValidCode reports whether the given code exists in the catalog.
func IsValidCode(code string) bool {
	for _, def := range catalog {
		if def.Code == code {
			return true
		}
	}

	return false
}
