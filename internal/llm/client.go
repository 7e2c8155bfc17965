// Package llm provides the conversational language model client used to
// phrase interview responses. The numeric pipeline never depends on it;
// every caller has a deterministic fallback.
package llm

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured indicates no inference API key was provided.
var ErrNotConfigured = errors.New("inference API key is not configured")

// Client defines the interface for conversation model providers.
type Client interface {
	// Chat sends a system prompt plus the user's utterance and returns the
	// model's free-text reply.
	Chat(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Config holds configuration for a conversation model client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// unconfiguredClient stands in when no inference credentials are set.
// Every call errors, which routes callers onto their built-in fallbacks.
type unconfiguredClient struct{}

// NewUnconfiguredClient returns a client for running without inference
// credentials. Chat always fails, so stages answer with canned text.
func NewUnconfiguredClient() Client {
	return unconfiguredClient{}
}

func (unconfiguredClient) Chat(_ context.Context, _, _ string) (string, error) {
	return "", ErrNotConfigured
}
