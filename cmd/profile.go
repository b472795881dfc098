package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"fabagent/cli/pkg/assistant"
	"fabagent/cli/pkg/config"
	"fabagent/cli/pkg/powerbi"
	"fabagent/cli/pkg/rest"
)

// resolveProfile merges environment, saved keychain profile and interactive
// form into a complete credential bundle.
func resolveProfile(title string, needAgent bool) (config.Profile, error) {
	p := config.FromEnv()
	if stored, ok := config.LoadProfile(); ok {
		p.Merge(stored)
	}

	specs := []fieldSpec{
		{label: "Tenant ID", value: &p.TenantID},
		{label: "Client ID", value: &p.ClientID},
		{label: "Client Secret", value: &p.ClientSecret, secret: true},
		{label: "Workspace ID", value: &p.WorkspaceID},
	}
	if needAgent {
		specs = append(specs, fieldSpec{label: "Agent ID", value: &p.AgentID})
	}
	if err := promptFields(title, specs); err != nil {
		return p, err
	}

	return p, p.Validate(needAgent)
}

// remediation maps an error onto the likely fix, per the troubleshooting
// guidance the original tooling shipped with.
func remediation(err error) string {
	switch {
	case powerbi.IsNotAuthorized(err):
		return "Not authorized. The SPN needs Build permission on this semantic model\n" +
			"(Fabric portal > Semantic Model > Manage permissions)."
	case rest.IsUnauthorized(err):
		return "Authentication failed. Check the tenant ID, client ID and client secret."
	case rest.IsForbidden(err):
		return "Access denied. The SPN needs the Contributor role on the workspace."
	case rest.IsNotFound(err):
		return "Resource not found. Check the workspace and agent IDs and make sure the agent is published."
	case errors.Is(err, assistant.ErrPollTimeout):
		return "The agent took too long to answer. Try a simpler question or try again later."
	}
	return ""
}

// printStepError reports a failed step and any remediation hint, without
// ending the surrounding loop.
func printStepError(err error) {
	fmt.Println(errorStyle.Render("[ERROR] " + err.Error()))
	if hint := remediation(err); hint != "" {
		fmt.Println(faintStyle.Render(hint))
	}
}

// readLoop runs an interactive line loop until EOF, interrupt or a quit
// word. Empty lines are skipped; every other line is passed to handle.
func readLoop(prompt string, handle func(line string)) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Println()
		fmt.Print(prompt)
		if !scanner.Scan() {
			fmt.Println("\nGoodbye.")
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			fmt.Println("Goodbye.")
			return
		}
		handle(line)
	}
}

// rule prints a horizontal separator like the section dividers of the
// original scripts.
func rule() {
	fmt.Println(faintStyle.Render(strings.Repeat("-", 60)))
}
