package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/taxpilot-ai/taxpilot/internal/knowledge"
)

// MockConversation is a test implementation of the Conversation interface.
// It replays canned replies (or errors) in order and records every call.
type MockConversation struct {
	Replies []string
	Errors  []error
	calls   int
	mu      sync.Mutex
}

// Chat returns the next canned reply or error.
func (m *MockConversation) Chat(_ context.Context, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++

	if idx < len(m.Errors) && m.Errors[idx] != nil {
		return "", m.Errors[idx]
	}
	if idx < len(m.Replies) {
		return m.Replies[idx], nil
	}
	return "", fmt.Errorf("no more mock replies (call %d)", idx)
}

// Calls reports how many times Chat was invoked.
func (m *MockConversation) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockKnowledge is a test implementation of the Knowledge interface.
type MockKnowledge struct {
	Results []knowledge.Result
	Err     error
	queries []string
	mu      sync.Mutex
}

// Search returns the canned results or error and records the query.
func (m *MockKnowledge) Search(_ context.Context, query string, _ int) ([]knowledge.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries = append(m.queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Results, nil
}

// Queries returns the recorded queries.
func (m *MockKnowledge) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}
