package fabric

import (
	"context"
	"fmt"
	"net/http"

	"fabagent/cli/pkg/auth"
	"fabagent/cli/pkg/rest"
)

const BaseURL = "https://api.fabric.microsoft.com/v1"

// Client is the REST client for Microsoft Fabric workspace APIs.
type Client struct {
	rest    *rest.Client
	baseURL string
}

// NewClient creates a new Fabric API client.
func NewClient(authenticator *auth.Authenticator) *Client {
	return &Client{
		rest:    rest.New(authenticator, []string{auth.FabricScope}),
		baseURL: BaseURL,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Item represents a Fabric workspace item (lakehouse, notebook, semantic model, ...).
type Item struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	WorkspaceId string `json:"workspaceId,omitempty"`
}

// ItemListResponse represents the response containing an array of Items.
type ItemListResponse struct {
	Value []Item `json:"value"`
}

// ListItems calls GET /workspaces/{workspaceId}/items
func (c *Client) ListItems(ctx context.Context, workspaceId string) ([]Item, error) {
	var resp ItemListResponse
	path := fmt.Sprintf("%s/workspaces/%s/items", c.baseURL, workspaceId)
	if err := c.rest.DoJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// GetItem calls GET /workspaces/{workspaceId}/items/{itemId}
func (c *Client) GetItem(ctx context.Context, workspaceId, itemId string) (*Item, error) {
	var item Item
	path := fmt.Sprintf("%s/workspaces/%s/items/%s", c.baseURL, workspaceId, itemId)
	if err := c.rest.DoJSON(ctx, http.MethodGet, path, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
