// Package navigation builds the permission-filtered navigation menu served
// to the frontend. Each entry is gated by a page permission; members only
// see the screens their resolved access allows.
package navigation

import "github.com/AgencyDesk/AgencyDesk/internal/access"

// Item represents a single navigation menu entry.
type Item struct {
	Title      string `json:"title"`
	Path       string `json:"path"`
	Section    string `json:"section"`
	Permission string `json:"-"`
}

// menu is the full navigation menu in display order.
var menu = []Item{ //nolint:gochecknoglobals
	{Title: "Dashboard", Path: "/dashboard", Section: "main", Permission: access.PermDashboardView},
	{Title: "Clients", Path: "/clients", Section: "main", Permission: access.PermClientsView},
	{Title: "Sales", Path: "/sales", Section: "main", Permission: access.PermSalesView},
	{Title: "Custom Requests", Path: "/customs", Section: "main", Permission: access.PermCustomsView},
	{Title: "Communications", Path: "/comms", Section: "main", Permission: access.PermCommsView},
	{Title: "Content Library", Path: "/content", Section: "main", Permission: access.PermContentView},
	{Title: "Team", Path: "/team", Section: "admin", Permission: access.PermTeamView},
	{Title: "Settings", Path: "/settings", Section: "admin", Permission: access.PermSettingsView},
	{Title: "Agencies", Path: "/agencies", Section: "platform", Permission: access.PermAgenciesView},
}

// Menu returns the navigation entries the given access is allowed to see.
func Menu(resolved access.EffectiveAccess) []Item {
	out := make([]Item, 0, len(menu))

	for _, item := range menu {
		if resolved.HasPermission(item.Permission) {
			out = append(out, item)
		}
	}

	return out
}
