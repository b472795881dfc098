// Package config resolves the SPN credential bundle the commands need.
// Values are merged from the process environment (after loading a .env
// file), the OS keychain profile saved by `fabagent login`, and finally an
// interactive prompt for whatever is still missing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables recognized for each profile field.
const (
	EnvTenantID     = "FABAGENT_TENANT_ID"
	EnvClientID     = "FABAGENT_CLIENT_ID"
	EnvClientSecret = "FABAGENT_CLIENT_SECRET"
	EnvWorkspaceID  = "FABAGENT_WORKSPACE_ID"
	EnvAgentID      = "FABAGENT_AGENT_ID"
)

// Profile is the credential bundle: SPN identity plus target identifiers.
// All fields are opaque strings; the bearer token derived from them is never
// stored anywhere.
type Profile struct {
	TenantID     string `json:"tenantId"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	WorkspaceID  string `json:"workspaceId"`
	AgentID      string `json:"agentId,omitempty"`
}

// FromEnv reads profile fields from the environment, loading a .env file
// from the working directory first if one exists.
func FromEnv() Profile {
	_ = godotenv.Load()
	return Profile{
		TenantID:     strings.TrimSpace(os.Getenv(EnvTenantID)),
		ClientID:     strings.TrimSpace(os.Getenv(EnvClientID)),
		ClientSecret: strings.TrimSpace(os.Getenv(EnvClientSecret)),
		WorkspaceID:  strings.TrimSpace(os.Getenv(EnvWorkspaceID)),
		AgentID:      strings.TrimSpace(os.Getenv(EnvAgentID)),
	}
}

// Merge fills empty fields of p from other. Existing values win.
func (p *Profile) Merge(other Profile) {
	if p.TenantID == "" {
		p.TenantID = other.TenantID
	}
	if p.ClientID == "" {
		p.ClientID = other.ClientID
	}
	if p.ClientSecret == "" {
		p.ClientSecret = other.ClientSecret
	}
	if p.WorkspaceID == "" {
		p.WorkspaceID = other.WorkspaceID
	}
	if p.AgentID == "" {
		p.AgentID = other.AgentID
	}
}

// Missing returns the names of required fields that are still empty.
// The agent ID is only required by the Data Agent commands.
func (p Profile) Missing(needAgent bool) []string {
	var missing []string
	if p.TenantID == "" {
		missing = append(missing, "tenant ID")
	}
	if p.ClientID == "" {
		missing = append(missing, "client ID")
	}
	if p.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if p.WorkspaceID == "" {
		missing = append(missing, "workspace ID")
	}
	if needAgent && p.AgentID == "" {
		missing = append(missing, "agent ID")
	}
	return missing
}

// Validate returns an error naming every required field that is empty.
func (p Profile) Validate(needAgent bool) error {
	if missing := p.Missing(needAgent); len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
