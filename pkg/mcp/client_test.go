package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabagent/cli/pkg/auth"
)

type fakeCredential struct{}

func (fakeCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "tok", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

// mcpServer mocks the Fabric MCP endpoint and records every JSON-RPC call.
type mcpServer struct {
	mu        sync.Mutex
	methods   []string
	ids       []int
	toolLists int
	calledAs  []string
}

func (s *mcpServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req struct {
			Jsonrpc string                 `json:"jsonrpc"`
			Id      int                    `json:"id"`
			Method  string                 `json:"method"`
			Params  map[string]interface{} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.Jsonrpc)

		s.mu.Lock()
		s.methods = append(s.methods, req.Method)
		s.ids = append(s.ids, req.Id)
		s.mu.Unlock()

		switch req.Method {
		case "initialize":
			assert.Equal(t, ProtocolVersion, req.Params["protocolVersion"])
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":{"protocolVersion":"2024-11-05","serverInfo":{"name":"fabric-mcp","version":"1.2.0"}}}`, req.Id)
		case "tools/list":
			s.mu.Lock()
			s.toolLists++
			s.mu.Unlock()
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":{"tools":[{"name":"sales_agent","description":"Ask the agent","inputSchema":{"type":"object","properties":{"userQuestion":{"type":"string"}},"required":["userQuestion"]}}]}}`, req.Id)
		case "tools/call":
			name := req.Params["name"].(string)
			s.mu.Lock()
			s.calledAs = append(s.calledAs, name)
			s.mu.Unlock()
			args := req.Params["arguments"].(map[string]interface{})
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":{"content":[{"type":"text","text":"answer to: %s"}]}}`, req.Id, args["userQuestion"])
		default:
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32601,"message":"method not found"}}`, req.Id)
		}
	})
}

func newTestClient(t *testing.T, s *mcpServer) (*Client, func()) {
	srv := httptest.NewServer(s.handler(t))
	c := NewClient(auth.NewWithCredential(fakeCredential{}), "ws", "agent")
	c.SetEndpoint(srv.URL)
	return c, srv.Close
}

func TestSessionFlow(t *testing.T) {
	srv := &mcpServer{}
	c, closeSrv := newTestClient(t, srv)
	defer closeSrv()

	ctx := context.Background()
	handshake, err := c.Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fabric-mcp", handshake.ServerInfo.Name)
	assert.Equal(t, "2024-11-05", handshake.ProtocolVersion)

	tools, err := c.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "sales_agent", tools[0].Name)
	assert.Contains(t, tools[0].InputSchema.Required, "userQuestion")

	// The discovered tool name is reused for every question in the session.
	for _, q := range []string{"how many orders?", "top customer?"} {
		answer, err := c.CallTool(ctx, tools[0].Name, map[string]interface{}{"userQuestion": q})
		require.NoError(t, err)
		assert.Equal(t, "answer to: "+q, answer)
	}

	assert.Equal(t, 1, srv.toolLists, "tools/list must be issued exactly once per session")
	assert.Equal(t, []string{"sales_agent", "sales_agent"}, srv.calledAs)
	assert.Equal(t, []int{1, 2, 3, 4}, srv.ids, "request ids must increase monotonically")
}

func TestSSEResponseParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message\n")
		fmt.Fprint(w, "data: not json\n")
		fmt.Fprint(w, "data: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"content\":[{\"type\":\"text\",\"text\":\"partial\"}]}}\n")
		fmt.Fprint(w, "data: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"content\":[{\"type\":\"text\",\"text\":\"final answer\"}]}}\n")
	}))
	defer srv.Close()

	c := NewClient(auth.NewWithCredential(fakeCredential{}), "ws", "agent")
	c.SetEndpoint(srv.URL)

	answer, err := c.CallTool(context.Background(), "sales_agent", map[string]interface{}{"userQuestion": "q"})
	require.NoError(t, err)
	assert.Equal(t, "final answer", answer, "the last data event wins")
}

func TestRPCErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"agent not published"}}`)
	}))
	defer srv.Close()

	c := NewClient(auth.NewWithCredential(fakeCredential{}), "ws", "agent")
	c.SetEndpoint(srv.URL)

	_, err := c.ListTools(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent not published")
	assert.Contains(t, err.Error(), "tools/list")
}

func TestCallToolErrorContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":{"isError":true,"content":[{"type":"text","text":"query failed"}]}}`)
	}))
	defer srv.Close()

	c := NewClient(auth.NewWithCredential(fakeCredential{}), "ws", "agent")
	c.SetEndpoint(srv.URL)

	_, err := c.CallTool(context.Background(), "sales_agent", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query failed")
}
