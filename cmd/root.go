// Package cmd implements the fabagent command-line interface: interactive
// clients for Microsoft Fabric Data Agents (Assistants-compatible and MCP
// endpoints), DAX queries against semantic models, and an API connectivity
// check, all authenticated with a Service Principal.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fabagent",
	Short: "Interactive CLI for Microsoft Fabric Data Agents and semantic models",
	Long: `fabagent talks to Microsoft Fabric and Power BI with a Service Principal:
chat with a published Data Agent (Assistants or MCP endpoint), run DAX
queries against semantic models, and verify API connectivity.

Credentials are resolved from FABAGENT_* environment variables (a .env file
is honored), from a profile saved with "fabagent login", and finally by
prompting for whatever is still missing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
