package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taxpilot-ai/taxpilot/internal/common"
	"github.com/taxpilot-ai/taxpilot/internal/knowledge"
	"github.com/taxpilot-ai/taxpilot/internal/model"
	"github.com/taxpilot-ai/taxpilot/internal/tax"
)

// Deduct looks up the standard deduction, totals any accumulated itemized
// deductions, and recommends whichever is larger. The knowledge base only
// colors the narrative; its failure never surfaces.
func (p *Pipeline) Deduct(ctx context.Context, r model.Return) model.Return {
	out := r.Clone()

	out.StandardDeduction = tax.StandardDeduction(out.FilingStatus)

	out.ItemizedTotal = 0
	for _, d := range out.Deductions {
		out.ItemizedTotal += d.Amount
	}
	out.UseStandard = out.StandardDeduction >= out.ItemizedTotal

	guidance := p.deductionGuidance(ctx, out)

	savings := 0.0
	if out.UseStandard {
		savings = out.StandardDeduction - out.ItemizedTotal
	}

	recommendation := "itemized"
	effective := out.ItemizedTotal
	deductionType := "Itemized"
	if out.UseStandard {
		recommendation = "standard"
		effective = out.StandardDeduction
		deductionType = "Standard"
	}

	response := fmt.Sprintf("Based on the 2025 tax law, I recommend the **%s Deduction** of **%s**.\n\n",
		deductionType, common.Dollars(effective, 0))
	if out.UseStandard {
		response += fmt.Sprintf("The standard deduction (%s) exceeds your itemized deductions (%s), so the standard deduction saves you more.",
			common.Dollars(out.StandardDeduction, 0), common.Dollars(out.ItemizedTotal, 0))
	}
	if guidance != "" {
		response += "\n\n" + guidance
	}

	out.Stage = model.StageDeduct
	out.Response = response
	out.Cards = []model.Card{
		{
			Type:  model.CardDeduction,
			Title: "Deduction Analysis",
			Data: map[string]any{
				"standard_deduction": out.StandardDeduction,
				"itemized_total":     out.ItemizedTotal,
				"recommendation":     recommendation,
				"savings":            savings,
			},
		},
	}
	return out
}

const deductionGuidanceFallback = "Standard deduction is recommended for most filers. Check IRS Pub 501."

// deductionGuidance queries the knowledge base for deduction context. An
// unconfigured knowledge base yields a scripted line; a runtime failure
// yields an empty string.
func (p *Pipeline) deductionGuidance(ctx context.Context, r model.Return) string {
	query := fmt.Sprintf("Tax deductions for %s filer with income %s", r.FilingStatus, common.Dollars(r.TotalIncome, 0))

	results, err := p.knowledge.Search(ctx, query, 3)
	if err != nil {
		p.logger.Debug("knowledge base unavailable",
			slog.String("session_id", r.SessionID), slog.String("error", err.Error()))
		if errors.Is(err, common.ErrMissingConfig) {
			return deductionGuidanceFallback
		}
		return ""
	}
	return knowledge.JoinTexts(results)
}
