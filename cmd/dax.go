package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fabagent/cli/pkg/auth"
	"fabagent/cli/pkg/config"
	"fabagent/cli/pkg/powerbi"
)

var daxInteractive bool

var daxCmd = &cobra.Command{
	Use:   "dax",
	Short: "Run DAX queries against a semantic model",
	Long: `Lists the semantic models in a workspace, lets you pick one, and opens a
DAX query loop against it through the Power BI executeQueries API.

By default the command authenticates with the Service Principal profile;
--interactive switches to a browser login (supports MFA) instead. Running
DAX queries requires Build permission on the semantic model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var authn *auth.Authenticator
		var workspaceID string

		if daxInteractive {
			p := config.FromEnv()
			if stored, ok := config.LoadProfile(); ok {
				p.Merge(stored)
			}
			err := promptFields("Fabric Semantic Model - DAX Query Client", []fieldSpec{
				{label: "Tenant ID", value: &p.TenantID},
				{label: "Workspace ID", value: &p.WorkspaceID},
			})
			if err != nil {
				return err
			}
			fmt.Println("Opening browser for login...")
			authn, err = auth.NewInteractiveBrowser(p.TenantID)
			if err != nil {
				return err
			}
			workspaceID = p.WorkspaceID
		} else {
			p, err := resolveProfile("Fabric Semantic Model - DAX Query Client", false)
			if err != nil {
				return err
			}
			authn, err = auth.NewServicePrincipal(p.TenantID, p.ClientID, p.ClientSecret)
			if err != nil {
				return err
			}
			workspaceID = p.WorkspaceID
		}

		fmt.Print("Authenticating... ")
		if _, err := authn.GetToken(ctx, []string{auth.PowerBIScope}); err != nil {
			fmt.Println(errorStyle.Render("FAILED"))
			return err
		}
		fmt.Println(successStyle.Render("OK"))

		client := powerbi.NewClient(authn)

		datasets, err := client.ListDatasets(ctx, workspaceID)
		if err != nil {
			printStepError(err)
			return fmt.Errorf("listing semantic models failed")
		}
		if len(datasets) == 0 {
			fmt.Println("No semantic models found in this workspace.")
			return nil
		}

		var selected *powerbi.Dataset
		if len(datasets) == 1 {
			selected = &datasets[0]
			fmt.Printf("Using: %s\n", selected.Name)
		} else {
			selected, err = selectDataset(datasets)
			if err != nil {
				return err
			}
		}

		fmt.Println()
		rule()
		fmt.Printf("  Dataset: %s\n", selected.Name)
		fmt.Println(faintStyle.Render("  Enter DAX queries below. Type 'quit' to stop."))
		fmt.Println(faintStyle.Render("  Example: EVALUATE TOPN(10, 'TableName')"))
		rule()

		readLoop("DAX> ", func(dax string) {
			result, err := client.ExecuteQueries(ctx, selected.Id, dax)
			if err != nil {
				printStepError(err)
				return
			}
			fmt.Println()
			fmt.Println(powerbi.Render(result))
		})
		return nil
	},
}

func init() {
	daxCmd.Flags().BoolVarP(&daxInteractive, "interactive", "i", false,
		"authenticate with a browser login instead of the SPN profile")
	rootCmd.AddCommand(daxCmd)
}
