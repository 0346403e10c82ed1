// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agencydesk",
	Short: "AgencyDesk is the backend for the agency management application",
	Long: `AgencyDesk is the backend service for the agency management application.
It serves the JSON API for client tracking, custom content requests,
sales validation and team/role administration.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
