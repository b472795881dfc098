package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvTenantID, " tenant-1 ")
	t.Setenv(EnvClientID, "client-1")
	t.Setenv(EnvClientSecret, "s3cret")
	t.Setenv(EnvWorkspaceID, "ws-1")
	t.Setenv(EnvAgentID, "")

	p := FromEnv()
	assert.Equal(t, "tenant-1", p.TenantID, "values are trimmed")
	assert.Equal(t, "client-1", p.ClientID)
	assert.Equal(t, "s3cret", p.ClientSecret)
	assert.Equal(t, "ws-1", p.WorkspaceID)
	assert.Empty(t, p.AgentID)
}

func TestMergeKeepsExistingValues(t *testing.T) {
	p := Profile{TenantID: "env-tenant", WorkspaceID: "env-ws"}
	p.Merge(Profile{
		TenantID:     "stored-tenant",
		ClientID:     "stored-client",
		ClientSecret: "stored-secret",
		AgentID:      "stored-agent",
	})

	assert.Equal(t, "env-tenant", p.TenantID, "existing values win")
	assert.Equal(t, "env-ws", p.WorkspaceID)
	assert.Equal(t, "stored-client", p.ClientID, "empty fields are filled")
	assert.Equal(t, "stored-secret", p.ClientSecret)
	assert.Equal(t, "stored-agent", p.AgentID)
}

func TestValidateNamesMissingFields(t *testing.T) {
	p := Profile{TenantID: "t", WorkspaceID: "ws"}

	err := p.Validate(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client ID")
	assert.Contains(t, err.Error(), "client secret")
	assert.Contains(t, err.Error(), "agent ID")
	assert.NotContains(t, err.Error(), "tenant ID")

	p.ClientID = "c"
	p.ClientSecret = "s"
	require.NoError(t, p.Validate(false), "agent ID only required for agent commands")
	require.Error(t, p.Validate(true))

	p.AgentID = "a"
	require.NoError(t, p.Validate(true))
}

func TestMissingOrder(t *testing.T) {
	missing := Profile{}.Missing(true)
	assert.Equal(t, []string{"tenant ID", "client ID", "client secret", "workspace ID", "agent ID"}, missing)
}
