// Package assistant talks to a published Fabric Data Agent through its
// OpenAI-Assistants-compatible endpoint. A question is one full session:
// assistant and thread are created, the run is polled to a terminal status,
// the reply is read back, and the thread is deleted again.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"fabagent/cli/pkg/auth"
	"fabagent/cli/pkg/rest"
)

// APIVersion is the preview api-version every request must carry.
const APIVersion = "2024-05-01-preview"

// BaseURL builds the Assistants-compatible endpoint for one Data Agent.
func BaseURL(workspaceId, agentId string) string {
	return fmt.Sprintf(
		"https://api.fabric.microsoft.com/v1/workspaces/%s/dataagents/%s/aiassistant/openai",
		workspaceId, agentId,
	)
}

// ErrPollTimeout is returned when a run does not reach a terminal status
// within the polling ceiling.
var ErrPollTimeout = errors.New("timed out waiting for agent response")

// ErrNoReply is returned when a run completes but no assistant message
// carries any text.
var ErrNoReply = errors.New("no response from agent")

// Client is the REST client for a single Data Agent.
type Client struct {
	rest    *rest.Client
	baseURL string

	// PollInterval and PollTimeout bound the run-status loop.
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// NewClient creates a client for the given workspace and agent.
func NewClient(authenticator *auth.Authenticator, workspaceId, agentId string) *Client {
	return &Client{
		rest:         rest.New(authenticator, []string{auth.FabricScope}),
		baseURL:      BaseURL(workspaceId, agentId),
		PollInterval: 2 * time.Second,
		PollTimeout:  5 * time.Minute,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// do performs one request with the api-version query and a fresh ActivityId
// correlation header.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	query := url.Values{"api-version": {APIVersion}}
	header := http.Header{
		"Accept":     {"application/json"},
		"Activityid": {uuid.NewString()},
	}
	return c.rest.Do(ctx, method, c.baseURL+path, query, header, body, out)
}

// Assistant is the server-side handle registered for a session.
type Assistant struct {
	Id string `json:"id"`
}

// Thread is one conversation session.
type Thread struct {
	Id string `json:"id"`
}

// Run is one round of agent processing on a thread.
type Run struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}

// ContentBlock is one piece of a message; only text blocks carry a reply.
type ContentBlock struct {
	Type string `json:"type"`
	Text struct {
		Value string `json:"value"`
	} `json:"text"`
}

// Message is a thread message from either side of the conversation.
type Message struct {
	Id      string         `json:"id"`
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// MessageList is the list-messages response wrapper.
type MessageList struct {
	Data []Message `json:"data"`
}

// CreateAssistant calls POST /assistants. The model name is ignored by the
// Data Agent but the field is mandatory in the Assistants shape.
func (c *Client) CreateAssistant(ctx context.Context) (*Assistant, error) {
	var a Assistant
	body := map[string]string{"model": "not used"}
	if err := c.do(ctx, http.MethodPost, "/assistants", body, &a); err != nil {
		return nil, fmt.Errorf("creating assistant: %w", err)
	}
	return &a, nil
}

// CreateThread calls POST /threads.
func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var t Thread
	if err := c.do(ctx, http.MethodPost, "/threads", nil, &t); err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}
	return &t, nil
}

// CreateMessage posts a user question onto a thread.
func (c *Client) CreateMessage(ctx context.Context, threadId, content string) (*Message, error) {
	var m Message
	body := map[string]string{"role": "user", "content": content}
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadId+"/messages", body, &m); err != nil {
		return nil, fmt.Errorf("posting message: %w", err)
	}
	return &m, nil
}

// CreateRun triggers agent processing of a thread.
func (c *Client) CreateRun(ctx context.Context, threadId, assistantId string) (*Run, error) {
	var r Run
	body := map[string]string{"assistant_id": assistantId}
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadId+"/runs", body, &r); err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	return &r, nil
}

// GetRun retrieves the current status of a run.
func (c *Client) GetRun(ctx context.Context, threadId, runId string) (*Run, error) {
	var r Run
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadId+"/runs/"+runId, nil, &r); err != nil {
		return nil, fmt.Errorf("retrieving run: %w", err)
	}
	return &r, nil
}

// ListMessages returns the thread's messages in ascending order.
func (c *Client) ListMessages(ctx context.Context, threadId string) ([]Message, error) {
	var list MessageList
	query := url.Values{"api-version": {APIVersion}, "order": {"asc"}}
	header := http.Header{
		"Accept":     {"application/json"},
		"Activityid": {uuid.NewString()},
	}
	err := c.rest.Do(ctx, http.MethodGet, c.baseURL+"/threads/"+threadId+"/messages", query, header, nil, &list)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return list.Data, nil
}

// DeleteThread cleans up a conversation session.
func (c *Client) DeleteThread(ctx context.Context, threadId string) error {
	if err := c.do(ctx, http.MethodDelete, "/threads/"+threadId, nil, nil); err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}
	return nil
}

// terminalStatuses end the polling loop.
var terminalStatuses = map[string]bool{
	"completed":       true,
	"failed":          true,
	"cancelled":       true,
	"requires_action": true,
}

// WaitForRun polls the run until it reaches a terminal status or the polling
// ceiling elapses. progress, if non-nil, is invoked before each sleep.
func (c *Client) WaitForRun(ctx context.Context, threadId string, run *Run, progress func()) (*Run, error) {
	deadline := time.Now().Add(c.PollTimeout)
	for !terminalStatuses[run.Status] {
		if time.Now().After(deadline) {
			return nil, ErrPollTimeout
		}
		if progress != nil {
			progress()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.PollInterval):
		}
		var err error
		run, err = c.GetRun(ctx, threadId, run.Id)
		if err != nil {
			return nil, err
		}
	}
	return run, nil
}

// Ask sends one question through the full Assistants chain and returns the
// agent's reply text. The thread is deleted on every exit path once created.
func (c *Client) Ask(ctx context.Context, question string, progress func()) (reply string, err error) {
	a, err := c.CreateAssistant(ctx)
	if err != nil {
		return "", err
	}
	t, err := c.CreateThread(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		// Cleanup must not mask the primary error.
		_ = c.DeleteThread(context.WithoutCancel(ctx), t.Id)
	}()

	if _, err := c.CreateMessage(ctx, t.Id, question); err != nil {
		return "", err
	}
	run, err := c.CreateRun(ctx, t.Id, a.Id)
	if err != nil {
		return "", err
	}

	run, err = c.WaitForRun(ctx, t.Id, run, progress)
	if err != nil {
		return "", err
	}
	if run.Status != "completed" {
		return "", fmt.Errorf("run finished with status: %s", run.Status)
	}

	messages, err := c.ListMessages(ctx, t.Id)
	if err != nil {
		return "", err
	}
	for _, m := range messages {
		if m.Role != "assistant" || len(m.Content) == 0 {
			continue
		}
		var parts []string
		for _, block := range m.Content {
			if block.Text.Value != "" {
				parts = append(parts, block.Text.Value)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n"), nil
		}
	}
	return "", ErrNoReply
}
