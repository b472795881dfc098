package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fabagent/cli/pkg/auth"
	"fabagent/cli/pkg/fabric"
)

type checkStatus int

const (
	checkFail checkStatus = iota
	checkPass
	checkSkip
)

type checkResult struct {
	label  string
	status checkStatus
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify SPN authentication and Fabric API access",
	Long: `Runs three connectivity checks against a Fabric workspace:

  1. Token acquisition    - OAuth2 client_credentials grant
  2. List workspace items - GET /v1/workspaces/{workspaceId}/items
  3. Get specific item    - GET /v1/workspaces/{workspaceId}/items/{itemId}
                            (skipped when the workspace has no items)

Each check is recorded as pass/fail; a failed check does not stop the later
independent ones, but nothing is retried.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		profile, err := resolveProfile("Fabric API - Connectivity Test", false)
		if err != nil {
			return err
		}

		results := []checkResult{
			{label: "Token Acquisition", status: checkFail},
			{label: "List Workspace Items", status: checkFail},
			{label: "Get Specific Item", status: checkFail},
		}

		// Check 1: token acquisition.
		fmt.Println()
		rule()
		fmt.Println("CHECK 1: Token Acquisition")
		rule()
		authn, err := auth.NewServicePrincipal(profile.TenantID, profile.ClientID, profile.ClientSecret)
		if err != nil {
			return err
		}
		token, err := authn.GetToken(ctx, []string{auth.FabricScope})
		if err != nil {
			fmt.Println(errorStyle.Render("  FAILED: " + err.Error()))
			fmt.Println("\n  Cannot continue without a token.")
			printCheckSummary(results)
			return fmt.Errorf("connectivity test failed")
		}
		fmt.Printf("  Token acquired (length=%d)\n", len(token.Token))
		results[0].status = checkPass

		// Check 2: list workspace items.
		fmt.Println()
		rule()
		fmt.Println("CHECK 2: List Workspace Items")
		rule()
		client := fabric.NewClient(authn)
		fmt.Printf("  GET %s/workspaces/%s/items\n", fabric.BaseURL, profile.WorkspaceID)
		items, err := client.ListItems(ctx, profile.WorkspaceID)
		if err != nil {
			fmt.Println(errorStyle.Render("  FAILED: " + err.Error()))
			if hint := remediation(err); hint != "" {
				fmt.Println(faintStyle.Render("  " + hint))
			}
			printCheckSummary(results)
			return fmt.Errorf("connectivity test failed")
		}
		fmt.Printf("  Found %d item(s):\n", len(items))
		for _, item := range items {
			fmt.Printf("    - %s (%s)\n", item.DisplayName, item.Type)
		}
		results[1].status = checkPass

		// Check 3: get the first item by ID.
		if len(items) == 0 {
			fmt.Println("  No items found -- skipping Check 3.")
			results[2].status = checkSkip
		} else {
			fmt.Println()
			rule()
			fmt.Println("CHECK 3: Get Specific Item")
			rule()
			first := items[0]
			fmt.Printf("  GET %s/workspaces/%s/items/%s\n", fabric.BaseURL, profile.WorkspaceID, first.Id)
			detail, err := client.GetItem(ctx, profile.WorkspaceID, first.Id)
			if err != nil {
				fmt.Println(errorStyle.Render("  FAILED: " + err.Error()))
			} else {
				fmt.Printf("  Item: %s\n", detail.DisplayName)
				fmt.Printf("  Type: %s\n", detail.Type)
				fmt.Printf("  ID:   %s\n", detail.Id)
				results[2].status = checkPass
			}
		}

		printCheckSummary(results)

		for _, r := range results {
			if r.status == checkFail {
				return fmt.Errorf("connectivity test failed")
			}
		}
		return nil
	},
}

func printCheckSummary(results []checkResult) {
	fmt.Println()
	fmt.Println(titleStyle.Render("RESULTS"))
	passed, total := 0, 0
	for _, r := range results {
		switch r.status {
		case checkPass:
			fmt.Printf("  %s %s\n", successStyle.Render("[PASS]"), r.label)
			passed++
			total++
		case checkSkip:
			fmt.Printf("  %s %s\n", faintStyle.Render("[SKIP]"), r.label)
		default:
			fmt.Printf("  %s %s\n", errorStyle.Render("[FAIL]"), r.label)
			total++
		}
	}
	fmt.Println()
	fmt.Printf("  %d/%d checks passed.\n", passed, total)
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
