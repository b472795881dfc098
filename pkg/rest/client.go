// Package rest is the shared request core for the Fabric and Power BI
// clients: it attaches a bearer token to every call, sends JSON, and turns
// non-2xx responses into classified errors.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"fabagent/cli/pkg/auth"
)

// Client executes authenticated JSON requests against one resource scope.
type Client struct {
	auth       *auth.Authenticator
	scopes     []string
	httpClient *http.Client
}

// New creates a client that authorizes requests for the given scopes.
func New(authenticator *auth.Authenticator, scopes []string) *Client {
	return &Client{
		auth:       authenticator,
		scopes:     scopes,
		httpClient: &http.Client{},
	}
}

// DoJSON performs a request and decodes a JSON response body into out.
// A nil out discards the body; a nil body sends no payload.
func (c *Client) DoJSON(ctx context.Context, method, rawURL string, body, out interface{}) error {
	return c.Do(ctx, method, rawURL, nil, nil, body, out)
}

// Do is DoJSON with extra query parameters and headers.
func (c *Client) Do(ctx context.Context, method, rawURL string, query url.Values, header http.Header, body, out interface{}) error {
	resp, err := c.DoRaw(ctx, method, rawURL, query, header, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// DoRaw performs an authenticated request and returns the raw response for
// callers that need to inspect headers or stream the body themselves.
// Non-2xx responses are consumed and returned as a *Error.
func (c *Client) DoRaw(ctx context.Context, method, rawURL string, query url.Values, header http.Header, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		q := req.URL.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	token, err := c.auth.GetToken(ctx, c.scopes)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.Token)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, newError(resp)
	}
	return resp, nil
}
