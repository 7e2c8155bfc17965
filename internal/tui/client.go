// Package tui implements the interactive terminal chat client for the
// TaxPilot service.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taxpilot-ai/taxpilot/internal/server"
)

// AgentClient talks to a running TaxPilot service.
type AgentClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewAgentClient creates a client for the given service base URL.
func NewAgentClient(baseURL string, timeout time.Duration) *AgentClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &AgentClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts one turn to the service.
func (c *AgentClient) Send(ctx context.Context, sessionID, message string) (server.ChatResponse, error) {
	body, err := json.Marshal(server.ChatRequest{SessionID: sessionID, Message: message})
	if err != nil {
		return server.ChatResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", strings.NewReader(string(body)))
	if err != nil {
		return server.ChatResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return server.ChatResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return server.ChatResponse{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return server.ChatResponse{}, fmt.Errorf("agent error (status %d): %s", resp.StatusCode, string(raw))
	}

	var out server.ChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return server.ChatResponse{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return out, nil
}
