package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fabagent/cli/pkg/assistant"
	"fabagent/cli/pkg/auth"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a Data Agent over its Assistants-compatible endpoint",
	Long: `Opens an interactive session with a published Fabric Data Agent through
its OpenAI-Assistants-compatible API. Each question runs the full chain:
assistant and thread are created, the run is polled until it finishes, the
reply is printed and the thread is deleted again.

The Data Agent must be published in the Fabric portal. The SPN needs
Contributor access to the workspace and, if the agent uses a Semantic Model
data source, Build permission on that model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		profile, err := resolveProfile("Fabric Data Agent - Interactive Client", true)
		if err != nil {
			return err
		}

		authn, err := auth.NewServicePrincipal(profile.TenantID, profile.ClientID, profile.ClientSecret)
		if err != nil {
			return err
		}
		fmt.Print("Authenticating... ")
		if _, err := authn.GetToken(ctx, []string{auth.FabricScope}); err != nil {
			fmt.Println(errorStyle.Render("FAILED"))
			return err
		}
		fmt.Println(successStyle.Render("OK"))

		client := assistant.NewClient(authn, profile.WorkspaceID, profile.AgentID)

		fmt.Println()
		fmt.Println("Connected to Data Agent. Type your questions below.")
		fmt.Println(faintStyle.Render("Type 'quit' or 'exit' to stop."))
		rule()

		readLoop("You: ", func(question string) {
			fmt.Print(agentStyle.Render("Agent: "))
			answer, err := client.Ask(ctx, question, func() { fmt.Print(".") })
			fmt.Print(" ")
			if err != nil {
				fmt.Println()
				printStepError(err)
				return
			}
			fmt.Println(answer)
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
