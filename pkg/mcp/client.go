// Package mcp is a minimal Model Context Protocol client for Fabric Data
// Agents: JSON-RPC 2.0 over HTTP with initialize, tools/list and tools/call.
// The server may answer either with plain JSON or with an SSE stream; in the
// streaming case the last data event carries the JSON-RPC response.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"fabagent/cli/pkg/auth"
	"fabagent/cli/pkg/rest"
)

// ProtocolVersion is the MCP revision this client speaks.
const ProtocolVersion = "2024-11-05"

// Endpoint builds the MCP URL for one Data Agent.
func Endpoint(workspaceId, agentId string) string {
	return fmt.Sprintf(
		"https://api.fabric.microsoft.com/v1/mcp/workspaces/%s/dataagents/%s/agent",
		workspaceId, agentId,
	)
}

// Client is a stateless MCP client; only the request id counter advances.
type Client struct {
	rest     *rest.Client
	endpoint string
	nextId   int
}

// NewClient creates a client for the given workspace and agent.
func NewClient(authenticator *auth.Authenticator, workspaceId, agentId string) *Client {
	return &Client{
		rest:     rest.New(authenticator, []string{auth.FabricScope}),
		endpoint: Endpoint(workspaceId, agentId),
		nextId:   1,
	}
}

// SetEndpoint overrides the MCP URL. Used by tests.
func (c *Client) SetEndpoint(u string) { c.endpoint = u }

type rpcRequest struct {
	Jsonrpc string      `json:"jsonrpc"`
	Id      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// call sends one JSON-RPC request and unmarshals its result into out.
func (c *Client) call(ctx context.Context, method string, params, out interface{}) error {
	req := rpcRequest{Jsonrpc: "2.0", Id: c.nextId, Method: method, Params: params}
	c.nextId++

	header := http.Header{"Accept": {"application/json, text/event-stream"}}
	resp, err := c.rest.DoRaw(ctx, http.MethodPost, c.endpoint, nil, header, req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var rpc rpcResponse
	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		rpc, err = lastEventResponse(resp)
	} else {
		err = json.NewDecoder(resp.Body).Decode(&rpc)
	}
	if err != nil {
		return fmt.Errorf("%s: decoding response: %w", method, err)
	}

	if rpc.Error != nil {
		return fmt.Errorf("%s: %w", method, rpc.Error)
	}
	if out != nil && len(rpc.Result) > 0 {
		if err := json.Unmarshal(rpc.Result, out); err != nil {
			return fmt.Errorf("%s: decoding result: %w", method, err)
		}
	}
	return nil
}

// lastEventResponse scans an SSE body and keeps the last parseable data event.
func lastEventResponse(resp *http.Response) (rpcResponse, error) {
	var last rpcResponse
	found := false
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		var rpc rpcResponse
		if err := json.Unmarshal([]byte(payload), &rpc); err == nil {
			last = rpc
			found = true
		}
	}
	if err := scanner.Err(); err != nil {
		return rpcResponse{}, err
	}
	if !found {
		return rpcResponse{}, fmt.Errorf("no JSON-RPC payload in event stream")
	}
	return last, nil
}

// ServerInfo identifies the MCP server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the handshake response.
type InitializeResult struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ServerInfo      ServerInfo `json:"serverInfo"`
}

// Initialize performs the protocol handshake.
func (c *Client) Initialize(ctx context.Context) (*InitializeResult, error) {
	params := map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo":      map[string]string{"name": "fabagent", "version": "1.0.0"},
	}
	var result InitializeResult
	if err := c.call(ctx, "initialize", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InputSchema describes a tool's parameters.
type InputSchema struct {
	Type       string                       `json:"type"`
	Properties map[string]map[string]string `json:"properties"`
	Required   []string                     `json:"required"`
}

// Tool is one discovered agent tool.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type toolsListResult struct {
	Tools []Tool `json:"tools"`
}

// ListTools discovers the tools the agent publishes.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var result toolsListResult
	if err := c.call(ctx, "tools/list", map[string]interface{}{}, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// ContentBlock is one piece of a tool result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

// CallTool invokes one tool and returns the concatenated text content.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (string, error) {
	params := map[string]interface{}{"name": name, "arguments": arguments}
	var result callToolResult
	if err := c.call(ctx, "tools/call", params, &result); err != nil {
		return "", err
	}

	var parts []string
	for _, block := range result.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if result.IsError {
		return "", fmt.Errorf("tool reported an error: %s", text)
	}
	if text == "" {
		return "", fmt.Errorf("no response from agent")
	}
	return text, nil
}
