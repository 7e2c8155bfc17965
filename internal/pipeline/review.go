package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/taxpilot-ai/taxpilot/internal/model"
	"github.com/taxpilot-ai/taxpilot/internal/review"
)

// Review applies the review policy, appends a confidence summary to the
// response, and marks the turn completed. Needing review is a terminal
// annotation, not a blocking state: the session still finishes this turn.
func (p *Pipeline) Review(_ context.Context, r model.Return) model.Return {
	out := r.Clone()

	result := review.Evaluate(out)
	out.ConfidenceScore = result.Confidence
	out.ReviewFlags = result.Flags
	out.NeedsReview = result.NeedsReview()

	for _, flag := range result.Flags {
		out.Cards = append(out.Cards, model.Card{
			Type:  model.CardReview,
			Title: "Flagged for Review",
			Data: map[string]any{
				"field":      flag.FieldName,
				"reason":     flag.Reason,
				"confidence": flag.Confidence,
			},
		})
	}

	pct := int(math.Round(out.ConfidenceScore * 100))
	if out.NeedsReview {
		out.Response += fmt.Sprintf(
			"\n\nThis return has a **confidence score of %d%%**. I've flagged %d item(s) for professional review by our licensed EA.",
			pct, len(out.ReviewFlags))
	} else {
		out.Response += fmt.Sprintf(
			"\n\nThis return has a **high confidence score (%d%%)**. No items flagged for review.", pct)
	}

	out.Stage = model.StageReview
	out.Completed = true
	return out
}
