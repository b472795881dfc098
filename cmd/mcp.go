package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fabagent/cli/pkg/auth"
	"fabagent/cli/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Chat with a Data Agent over its MCP (JSON-RPC) endpoint",
	Long: `Connects to a published Fabric Data Agent through the Model Context
Protocol: one initialize handshake, one tools/list discovery, then one
tools/call per question. The MCP endpoint is stateless, so there is no
session to clean up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		profile, err := resolveProfile("Fabric Data Agent - MCP Client", true)
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

		client := mcp.NewClient(authn, profile.WorkspaceID, profile.AgentID)

		fmt.Println()
		rule()
		fmt.Println("Step 1: MCP Initialize")
		rule()
		handshake, err := client.Initialize(ctx)
		if err != nil {
			printStepError(err)
			return fmt.Errorf("MCP handshake failed")
		}
		fmt.Printf("  Server: %s v%s\n", handshake.ServerInfo.Name, handshake.ServerInfo.Version)
		fmt.Printf("  Protocol: %s\n", handshake.ProtocolVersion)

		fmt.Println()
		rule()
		fmt.Println("Step 2: List Available Tools")
		rule()
		tools, err := client.ListTools(ctx)
		if err != nil {
			printStepError(err)
			return fmt.Errorf("tool discovery failed")
		}
		if len(tools) == 0 {
			fmt.Println("  No tools found. Is the agent published?")
			return nil
		}

		fmt.Printf("  Found %d tool(s):\n", len(tools))
		for _, tool := range tools {
			fmt.Printf("    - %s\n", tool.Name)
			for prop, info := range tool.InputSchema.Properties {
				req := "optional"
				for _, r := range tool.InputSchema.Required {
					if r == prop {
						req = "required"
						break
					}
				}
				fmt.Printf("      param: %s (%s, %s)\n", prop, info["type"], req)
			}
		}

		// One discovery per session; every question reuses the first tool.
		toolName := tools[0].Name

		fmt.Println()
		rule()
		fmt.Printf("Connected via MCP. Tool: %s\n", toolName)
		fmt.Println(faintStyle.Render("Type your questions below. Type 'quit' or 'exit' to stop."))
		rule()

		readLoop("You: ", func(question string) {
			fmt.Print(agentStyle.Render("Agent: "))
			answer, err := client.CallTool(ctx, toolName, map[string]interface{}{
				"userQuestion": question,
			})
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
	rootCmd.AddCommand(mcpCmd)
}
