// Package review scores a completed tax computation and flags results that
// should go to a human reviewer.
package review

import (
	"fmt"

	"github.com/taxpilot-ai/taxpilot/internal/common"
	"github.com/taxpilot-ai/taxpilot/internal/model"
)

// Scoring constants. Each rule that fires may also lower the overall
// confidence in the computed return.
const (
	baseConfidence = 0.85

	filingStatusPenalty = 0.10
	largeRefundPenalty  = 0.05

	highWithholdingRatio = 0.25
	lowWithholdingRatio  = 0.10
	largeRefundThreshold = 5000
)

// Result is the outcome of evaluating a computed return.
type Result struct {
	Flags      []model.ReviewFlag
	Confidence float64
}

// NeedsReview reports whether any rule fired.
func (r Result) NeedsReview() bool {
	return len(r.Flags) > 0
}

// Evaluate runs the deterministic review rules over a computed return.
// It inspects only the computed totals and never touches external services.
func Evaluate(r model.Return) Result {
	var flags []model.ReviewFlag
	confidence := baseConfidence

	if r.FilingStatus == model.StatusSingle && r.Dependents > 0 {
		flags = append(flags, model.ReviewFlag{
			FieldName:  "Filing Status Optimization",
			FieldValue: string(r.FilingStatus),
			Reason:     "Filer has dependents but filed as Single. May qualify for Head of Household, saving ~$1,200+.",
			Confidence: 0.68,
		})
		confidence -= filingStatusPenalty
	}

	if r.TotalIncome > 0 {
		ratio := r.TotalWithheld / r.TotalIncome
		switch {
		case ratio > highWithholdingRatio:
			flags = append(flags, model.ReviewFlag{
				FieldName:  "High Withholding Rate",
				FieldValue: fmt.Sprintf("%.1f%%", ratio*100),
				Reason:     "Withholding rate exceeds 25% of gross income. May want to adjust W-4.",
				Confidence: 0.75,
			})
		case ratio < lowWithholdingRatio:
			flags = append(flags, model.ReviewFlag{
				FieldName:  "Low Withholding Rate",
				FieldValue: fmt.Sprintf("%.1f%%", ratio*100),
				Reason:     "Withholding rate is below 10%. Filer may owe at tax time.",
				Confidence: 0.70,
			})
		}
	}

	if r.EstimatedRefund > largeRefundThreshold {
		flags = append(flags, model.ReviewFlag{
			FieldName:  "Large Refund Amount",
			FieldValue: common.Dollars(r.EstimatedRefund, 0),
			Reason:     "Refund exceeds $5,000. Verify all income sources and withholding amounts.",
			Confidence: 0.60,
		})
		confidence -= largeRefundPenalty
	}

	return Result{
		Flags:      flags,
		Confidence: clamp(confidence),
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
