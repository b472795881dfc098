package auth

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// FabricScope is the target scope for Microsoft Fabric REST APIs.
const FabricScope = "https://api.fabric.microsoft.com/.default"

// PowerBIScope is the target scope for Power BI REST APIs (dataset listing,
// DAX execution). Fabric and Power BI often share a token space, but the
// executeQueries endpoint wants this resource.
const PowerBIScope = "https://analysis.windows.net/powerbi/api/.default"

// Authenticator provides bearer tokens for Fabric and Power BI resources.
type Authenticator struct {
	cred azcore.TokenCredential
}

// NewServicePrincipal creates an authenticator using an SPN's
// client_credentials grant against the Entra token endpoint.
func NewServicePrincipal(tenantID, clientID, clientSecret string) (*Authenticator, error) {
	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create service principal credential: %w", err)
	}
	return &Authenticator{cred: cred}, nil
}

// NewInteractiveBrowser creates an authenticator that logs a user in through
// the system browser. Supports MFA, so it is the path for users without an SPN.
func NewInteractiveBrowser(tenantID string) (*Authenticator, error) {
	cred, err := azidentity.NewInteractiveBrowserCredential(&azidentity.InteractiveBrowserCredentialOptions{
		TenantID: tenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create interactive browser credential: %w", err)
	}
	return &Authenticator{cred: cred}, nil
}

// NewWithCredential wraps an existing token credential.
func NewWithCredential(cred azcore.TokenCredential) *Authenticator {
	return &Authenticator{cred: cred}
}

// GetToken returns an OAuth token for the requested scopes. azidentity caches
// and silently renews tokens, so calling this per request is cheap.
func (a *Authenticator) GetToken(ctx context.Context, scopes []string) (azcore.AccessToken, error) {
	return a.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: scopes})
}
