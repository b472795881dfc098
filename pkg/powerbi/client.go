// Package powerbi lists semantic models in a workspace and runs DAX queries
// against them through the Power BI REST API.
package powerbi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"fabagent/cli/pkg/auth"
	"fabagent/cli/pkg/rest"
)

const BaseURL = "https://api.powerbi.com/v1.0/myorg"

// ErrCodeNotAuthorized is the Power BI error code for a caller without Build
// permission on the semantic model.
const ErrCodeNotAuthorized = "PowerBINotAuthorizedException"

// IsNotAuthorized reports whether err is the missing-Build-permission error.
func IsNotAuthorized(err error) bool {
	return rest.ErrorCode(err) == ErrCodeNotAuthorized
}

// Client is the REST client for the Power BI dataset APIs.
type Client struct {
	rest    *rest.Client
	baseURL string
}

// NewClient creates a new Power BI API client.
func NewClient(authenticator *auth.Authenticator) *Client {
	return &Client{
		rest:    rest.New(authenticator, []string{auth.PowerBIScope}),
		baseURL: BaseURL,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Dataset is a semantic model.
type Dataset struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// DatasetListResponse represents the response containing an array of Datasets.
type DatasetListResponse struct {
	Value []Dataset `json:"value"`
}

// ListDatasets calls GET /groups/{workspaceId}/datasets
func (c *Client) ListDatasets(ctx context.Context, workspaceId string) ([]Dataset, error) {
	var resp DatasetListResponse
	path := fmt.Sprintf("%s/groups/%s/datasets", c.baseURL, workspaceId)
	if err := c.rest.DoJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

type executeQueriesRequest struct {
	Queries []daxQuery `json:"queries"`
}

type daxQuery struct {
	Query string `json:"query"`
}

// QueryResult is the executeQueries response.
type QueryResult struct {
	Results []ResultSet `json:"results"`
}

// ResultSet is one query's result.
type ResultSet struct {
	Tables []Table `json:"tables"`
}

// Table is a tabular DAX result. Columns preserves the server's column order,
// which a plain map decode would lose.
type Table struct {
	Columns []string
	Rows    []map[string]interface{}
}

// UnmarshalJSON decodes rows twice: once raw to recover key order from the
// first row, once as maps for the values.
func (t *Table) UnmarshalJSON(data []byte) error {
	var wire struct {
		Rows []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	t.Columns = nil
	t.Rows = make([]map[string]interface{}, 0, len(wire.Rows))
	for i, raw := range wire.Rows {
		if i == 0 {
			cols, err := keyOrder(raw)
			if err != nil {
				return err
			}
			t.Columns = cols
		}
		var row map[string]interface{}
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
		t.Rows = append(t.Rows, row)
	}
	return nil
}

// keyOrder returns a JSON object's keys in document order.
func keyOrder(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("row is not a JSON object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in row", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// ExecuteQueries calls POST /datasets/{datasetId}/executeQueries with one DAX
// query text.
func (c *Client) ExecuteQueries(ctx context.Context, datasetId, dax string) (*QueryResult, error) {
	body := executeQueriesRequest{Queries: []daxQuery{{Query: dax}}}
	var result QueryResult
	path := fmt.Sprintf("%s/datasets/%s/executeQueries", c.baseURL, datasetId)
	if err := c.rest.DoJSON(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
