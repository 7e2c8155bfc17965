package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/taxpilot-ai/taxpilot/internal/common"
	"github.com/taxpilot-ai/taxpilot/internal/model"
	"github.com/taxpilot-ai/taxpilot/internal/tax"
)

// FormBuild computes the return: taxable income, federal tax from the
// bracket tables, credits, and the estimated refund or amount owed.
func (p *Pipeline) FormBuild(_ context.Context, r model.Return) model.Return {
	out := r.Clone()

	deduction := out.ItemizedTotal
	if out.UseStandard {
		deduction = out.StandardDeduction
	}

	out.TaxableIncome = math.Max(0, out.TotalIncome-deduction)
	out.FederalTax = tax.FederalTax(out.TaxableIncome, out.FilingStatus)
	taxAfterCredits := math.Max(0, out.FederalTax-out.Credits)
	out.EstimatedRefund = out.TotalWithheld - taxAfterCredits

	out.Stage = model.StageFormBuild
	out.Cards = []model.Card{
		{
			Type:  model.CardRefund,
			Title: "Estimated Refund",
			Data: map[string]any{
				"gross_income":   out.TotalIncome,
				"deductions":     deduction,
				"taxable_income": out.TaxableIncome,
				"federal_tax":    out.FederalTax,
				"withheld":       out.TotalWithheld,
				"refund":         out.EstimatedRefund,
			},
		},
	}

	if out.EstimatedRefund >= 0 {
		out.Response = fmt.Sprintf(
			"Here's your estimated 2025 tax return:\n\n"+
				"**Gross Income:** %s\n"+
				"**Deductions:** -%s\n"+
				"**Taxable Income:** %s\n"+
				"**Federal Tax:** %s\n"+
				"**Already Withheld:** %s\n\n"+
				"**Estimated Refund: %s**",
			common.Dollars(out.TotalIncome, 0), common.Dollars(deduction, 0),
			common.Dollars(out.TaxableIncome, 0), common.Dollars(out.FederalTax, 0),
			common.Dollars(out.TotalWithheld, 0), common.Dollars(out.EstimatedRefund, 0))
	} else {
		out.Response = fmt.Sprintf(
			"Based on your information, you may owe **%s** in additional taxes.\n\n"+
				"**Gross Income:** %s\n"+
				"**Taxable Income:** %s\n"+
				"**Federal Tax:** %s\n"+
				"**Already Withheld:** %s",
			common.Dollars(math.Abs(out.EstimatedRefund), 0), common.Dollars(out.TotalIncome, 0),
			common.Dollars(out.TaxableIncome, 0), common.Dollars(out.FederalTax, 0),
			common.Dollars(out.TotalWithheld, 0))
	}

	return out
}
