// Package knowledge queries an external tax knowledge base for narrative
// context. Results only enrich response text; they never feed numeric
// computation.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taxpilot-ai/taxpilot/internal/common"
)

const defaultTimeout = 10 * time.Second

// Result is a single knowledge base hit.
type Result struct {
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// Searcher defines the interface for knowledge base lookups.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]Result, error)
}

// Config holds configuration for the knowledge base client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client queries a knowledge base over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a knowledge base client. An empty base URL is allowed;
// Search then reports the service as unconfigured and callers fall back to
// built-in text.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search posts the query and returns ranked results. A single attempt is
// made per call.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: knowledge base URL", common.ErrMissingConfig)
	}
	if topK <= 0 {
		topK = 3
	}

	requestBody := map[string]any{
		"query": query,
		"top_k": topK,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("knowledge base error (status %d): %s", resp.StatusCode, string(body))
	}

	var response struct {
		Results []Result `json:"results"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return response.Results, nil
}

// JoinTexts concatenates result texts for prompt interpolation.
func JoinTexts(results []Result) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Text != "" {
			texts = append(texts, r.Text)
		}
	}
	return strings.Join(texts, "\n")
}
