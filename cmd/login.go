package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fabagent/cli/pkg/auth"
	"fabagent/cli/pkg/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save an SPN profile to the OS keychain",
	Long: `Prompts for the SPN credentials and Fabric identifiers, verifies them by
acquiring a token, and stores the profile in the OS keychain so the other
commands stop prompting. The agent ID is optional; only the Data Agent
commands need it. Tokens themselves are never stored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := config.FromEnv()
		if stored, ok := config.LoadProfile(); ok {
			p.Merge(stored)
		}

		err := promptFields("fabagent login", []fieldSpec{
			{label: "Tenant ID", value: &p.TenantID},
			{label: "Client ID", value: &p.ClientID},
			{label: "Client Secret", value: &p.ClientSecret, secret: true},
			{label: "Workspace ID", value: &p.WorkspaceID},
			{label: "Agent ID", value: &p.AgentID, optional: true},
		})
		if err != nil {
			return err
		}
		if err := p.Validate(false); err != nil {
			return err
		}

		// Verify before saving so a typo doesn't get persisted.
		authn, err := auth.NewServicePrincipal(p.TenantID, p.ClientID, p.ClientSecret)
		if err != nil {
			return err
		}
		fmt.Print("Verifying credentials... ")
		if _, err := authn.GetToken(cmd.Context(), []string{auth.FabricScope}); err != nil {
			fmt.Println(errorStyle.Render("FAILED"))
			return err
		}
		fmt.Println(successStyle.Render("OK"))

		if err := config.SaveProfile(p); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Profile saved to the OS keychain."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
