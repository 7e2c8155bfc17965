// Package pipeline implements the five-stage interview pipeline:
// intake, classifier, deduction, form builder, and review. Stages are pure
// transformations over model.Return; external collaborators are injected
// and every external failure has a deterministic fallback.
package pipeline

import (
	"context"

	"github.com/taxpilot-ai/taxpilot/internal/knowledge"
)

// Conversation generates the free-text reply for a stage. Satisfied by
// llm.Client.
type Conversation interface {
	Chat(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Knowledge looks up narrative context from the tax knowledge base.
// Satisfied by knowledge.Client.
type Knowledge interface {
	Search(ctx context.Context, query string, topK int) ([]knowledge.Result, error)
}
