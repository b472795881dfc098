package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCredential struct {
	token  string
	err    error
	scopes []string
}

func (c *fakeCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.scopes = opts.Scopes
	if c.err != nil {
		return azcore.AccessToken{}, c.err
	}
	return azcore.AccessToken{Token: c.token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func TestGetTokenPassesScopes(t *testing.T) {
	cred := &fakeCredential{token: "tok"}
	a := NewWithCredential(cred)

	token, err := a.GetToken(context.Background(), []string{FabricScope})
	require.NoError(t, err)
	assert.Equal(t, "tok", token.Token)
	assert.Equal(t, []string{FabricScope}, cred.scopes)
}

func TestGetTokenPropagatesFailure(t *testing.T) {
	cred := &fakeCredential{err: errors.New("AADSTS7000215: invalid client secret")}
	a := NewWithCredential(cred)

	_, err := a.GetToken(context.Background(), []string{PowerBIScope})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AADSTS7000215")
}

func TestNewServicePrincipalRejectsEmptyInput(t *testing.T) {
	_, err := NewServicePrincipal("", "", "")
	require.Error(t, err)
}
